package sse

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/auth"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/manual"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	providers "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/sse"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/transports/streamresult"
)

const maxReconnects = 3

// SSEClientTransport calls tools whose results arrive as Server-Sent Events.
type SSEClientTransport struct {
	client *http.Client
	log    logr.Logger
	tokens *auth.TokenCache
}

// NewSSETransport builds a transport without a client timeout; streams are bounded by the call context.
func NewSSETransport(logger logr.Logger) *SSEClientTransport {
	return &SSEClientTransport{
		client: &http.Client{},
		log:    logger.WithName("sse"),
		tokens: auth.NewTokenCache(),
	}
}

func asSSE(prov base.Provider) (*providers.SSEProvider, error) {
	p, ok := prov.(*providers.SSEProvider)
	if !ok {
		return nil, errors.New("SSEClientTransport can only be used with SSEProvider")
	}
	return p, nil
}

// RegisterToolProvider fetches the UTCP manual served at the provider URL.
func (t *SSEClientTransport) RegisterToolProvider(ctx context.Context, prov base.Provider) ([]tools.Tool, error) {
	p, err := asSSE(prov)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}
	if err := t.tokens.Apply(ctx, t.client, req, p.Auth); err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discover tools from %s: %w", p.Name, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("discover tools from %s: %s: %s", p.Name, resp.Status, strings.TrimSpace(string(body)))
	}
	m, err := manual.Parse(body, false)
	if err != nil {
		return nil, fmt.Errorf("discover tools from %s: %w", p.Name, err)
	}
	for i := range m.Tools {
		if m.Tools[i].Provider == nil {
			m.Tools[i].Provider = p
		}
	}
	t.log.V(1).Info("discovered tools", "provider", p.Name, "tools", len(m.Tools))
	return m.Tools, nil
}

func (t *SSEClientTransport) DeregisterToolProvider(ctx context.Context, prov base.Provider) error {
	p, err := asSSE(prov)
	if err != nil {
		return err
	}
	if oauth, ok := p.Auth.(*auth.OAuth2Auth); ok {
		t.tokens.Forget(oauth.ClientID)
	}
	return nil
}

// CallTool posts the arguments to URL/{tool} and collects the events of the
// reply. One event is returned as its value, several as a list.
func (t *SSEClientTransport) CallTool(ctx context.Context, toolName string, args map[string]any, prov base.Provider) (any, error) {
	sr, err := t.CallToolStream(ctx, toolName, args, prov)
	if err != nil {
		return nil, err
	}
	return streamresult.Collect(ctx, sr)
}

// CallToolStream posts the arguments to URL/{tool} and yields each event as it
// arrives. When the provider allows it, a dropped stream is resumed with the
// last seen event id.
func (t *SSEClientTransport) CallToolStream(ctx context.Context, toolName string, args map[string]any, prov base.Provider) (streamresult.StreamResult, error) {
	p, err := asSSE(prov)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	resp, err := t.post(ctx, p, toolName, args, "")
	if err != nil {
		cancel()
		return nil, err
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "event-stream") {
		defer cancel()
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var result any
		if err := json.Unmarshal(data, &result); err != nil {
			result = string(data)
		}
		return streamresult.NewSliceStreamResult([]any{result}, nil), nil
	}

	ch := make(chan any)
	go func() {
		defer close(ch)
		body := resp.Body
		lastID := ""
		for attempt := 0; ; attempt++ {
			err := t.readEvents(ctx, body, p, ch, &lastID)
			body.Close()
			if err == nil || ctx.Err() != nil {
				return
			}
			if !p.Reconnect || attempt >= maxReconnects {
				send(ctx, ch, fmt.Errorf("read events of %s: %w", toolName, err))
				return
			}
			t.log.V(1).Info("reconnecting event stream", "tool", toolName, "last_event_id", lastID, "error", err.Error())
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(p.RetryTimeout) * time.Millisecond):
			}
			next, err := t.post(ctx, p, toolName, args, lastID)
			if err != nil {
				send(ctx, ch, err)
				return
			}
			body = next.Body
		}
	}()
	return streamresult.NewContextStreamResult(ctx, ch, func() error {
		cancel()
		return nil
	}), nil
}

func (t *SSEClientTransport) post(ctx context.Context, p *providers.SSEProvider, toolName string, args map[string]any, lastEventID string) (*http.Response, error) {
	payload := make(map[string]any, len(args))
	headers := make(http.Header)
	for k, v := range p.Headers {
		headers.Set(k, v)
	}
	for k, v := range args {
		payload[k] = v
	}
	for _, field := range p.HeaderFields {
		if v, ok := payload[field]; ok {
			headers.Set(field, fmt.Sprint(v))
			delete(payload, field)
		}
	}
	var body any = payload
	if p.BodyField != nil {
		body = map[string]any{*p.BodyField: payload}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(p.URL, "/") + "/" + toolName
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header = headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}
	if err := t.tokens.Apply(ctx, t.client, req, p.Auth); err != nil {
		return nil, err
	}

	t.log.V(1).Info("calling tool", "tool", toolName, "url", url)
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call tool %s: %w", toolName, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("tool %s returned error status: %s: %s", toolName, resp.Status, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

// readEvents parses an event stream until it ends. Events of another type
// than the provider's event_type are skipped; data that is not JSON is kept as text.
func (t *SSEClientTransport) readEvents(ctx context.Context, body io.Reader, p *providers.SSEProvider, ch chan<- any, lastID *string) error {
	reader := bufio.NewReader(body)
	var data strings.Builder
	event := ""
	dispatch := func() bool {
		defer func() {
			data.Reset()
			event = ""
		}()
		if data.Len() == 0 {
			return true
		}
		name := event
		if name == "" {
			name = "message"
		}
		if p.EventType != nil && *p.EventType != "" && name != *p.EventType {
			return true
		}
		var v any
		if err := json.Unmarshal([]byte(data.String()), &v); err != nil {
			v = data.String()
		}
		return send(ctx, ch, v)
	}

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch {
			case line == "":
				if !dispatch() {
					return nil
				}
			case field == "":
				// comment
			case field == "data":
				if data.Len() > 0 {
					data.WriteByte('\n')
				}
				data.WriteString(value)
			case field == "event":
				event = value
			case field == "id":
				*lastID = value
			}
		}
		if errors.Is(err, io.EOF) {
			dispatch()
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func send(ctx context.Context, ch chan<- any, v any) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
