package streamable

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/auth"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/manual"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	providers "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/streamable"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/transports/streamresult"
)

// StreamableHTTPClientTransport calls tools that stream their result as NDJSON
// or a JSON text sequence.
type StreamableHTTPClientTransport struct {
	client *http.Client
	log    logr.Logger
	tokens *auth.TokenCache
}

func NewStreamableHTTPTransport(logger logr.Logger) *StreamableHTTPClientTransport {
	return &StreamableHTTPClientTransport{
		client: &http.Client{},
		log:    logger.WithName("http_stream"),
		tokens: auth.NewTokenCache(),
	}
}

func asStreamable(prov base.Provider) (*providers.StreamableHttpProvider, error) {
	p, ok := prov.(*providers.StreamableHttpProvider)
	if !ok {
		return nil, errors.New("StreamableHTTPClientTransport can only be used with StreamableHttpProvider")
	}
	return p, nil
}

// RegisterToolProvider fetches the UTCP manual served at the provider URL.
func (t *StreamableHTTPClientTransport) RegisterToolProvider(ctx context.Context, prov base.Provider) ([]tools.Tool, error) {
	p, err := asStreamable(prov)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, p)
	defer cancel()

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
		return nil, fmt.Errorf("discover tools from %s: %s", p.Name, resp.Status)
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

func (t *StreamableHTTPClientTransport) DeregisterToolProvider(ctx context.Context, prov base.Provider) error {
	p, err := asStreamable(prov)
	if err != nil {
		return err
	}
	if oauth, ok := p.Auth.(*auth.OAuth2Auth); ok {
		t.tokens.Forget(oauth.ClientID)
	}
	return nil
}

func withTimeout(ctx context.Context, p *providers.StreamableHttpProvider) (context.Context, context.CancelFunc) {
	if p.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(p.Timeout)*time.Millisecond)
}

// CallTool calls URL/{tool} and collects the streamed chunks. One chunk is
// returned as its value, several as a list.
func (t *StreamableHTTPClientTransport) CallTool(ctx context.Context, toolName string, args map[string]any, prov base.Provider) (any, error) {
	sr, err := t.CallToolStream(ctx, toolName, args, prov)
	if err != nil {
		return nil, err
	}
	return streamresult.Collect(ctx, sr)
}

// CallToolStream calls URL/{tool} and yields each record of an NDJSON or JSON
// text sequence reply as it arrives. A plain application/json reply is one
// part. The provider timeout bounds the whole stream; when it or ctx ends the
// stream early, Next reports the context error.
func (t *StreamableHTTPClientTransport) CallToolStream(ctx context.Context, toolName string, args map[string]any, prov base.Provider) (streamresult.StreamResult, error) {
	p, err := asStreamable(prov)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, p)
	resp, err := t.do(ctx, p, toolName, args)
	if err != nil {
		cancel()
		return nil, err
	}

	if isSingleDocument(resp.Header.Get("Content-Type")) {
		defer cancel()
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read result of %s: %w", toolName, err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return streamresult.NewSliceStreamResult(nil, nil), nil
		}
		var result any
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("decode result of %s: %w", toolName, err)
		}
		return streamresult.NewSliceStreamResult([]any{result}, nil), nil
	}

	ch := make(chan any)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		size := p.ChunkSize
		if size < 16 {
			size = 4096
		}
		if err := readRecords(ctx, bufio.NewReaderSize(&recordSeparatorReader{r: resp.Body}, size), ch); err != nil {
			send(ctx, ch, fmt.Errorf("read stream of %s: %w", toolName, err))
		}
	}()
	return streamresult.NewContextStreamResult(ctx, ch, func() error {
		cancel()
		return nil
	}), nil
}

// isSingleDocument reports a plain JSON reply, which may span several lines.
func isSingleDocument(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

// readRecords sends one JSON value per line until the body ends. A read error
// or an undecodable record is returned; a done ctx stops it silently.
func readRecords(ctx context.Context, r *bufio.Reader, ch chan<- any) error {
	for {
		line, err := r.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var chunk any
			if uerr := json.Unmarshal(line, &chunk); uerr != nil {
				return uerr
			}
			if !send(ctx, ch, chunk) {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (t *StreamableHTTPClientTransport) do(ctx context.Context, p *providers.StreamableHttpProvider, toolName string, args map[string]any) (*http.Response, error) {
	remaining := make(map[string]any, len(args))
	for k, v := range args {
		remaining[k] = v
	}
	headers := make(http.Header)
	for k, v := range p.Headers {
		headers.Set(k, v)
	}
	for _, field := range p.HeaderFields {
		if v, ok := remaining[field]; ok {
			headers.Set(field, fmt.Sprint(v))
			delete(remaining, field)
		}
	}

	u, err := url.Parse(strings.TrimSuffix(p.URL, "/") + "/" + toolName)
	if err != nil {
		return nil, err
	}
	method := strings.ToUpper(p.HTTPMethod)
	if method == "" {
		method = http.MethodPost
	}
	var body io.Reader
	if method == http.MethodGet {
		q := u.Query()
		for k, v := range remaining {
			q.Set(k, fmt.Sprint(v))
		}
		u.RawQuery = q.Encode()
	} else {
		var payload any = remaining
		if p.BodyField != nil {
			payload = remaining[*p.BodyField]
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
		headers.Set("Content-Type", p.ContentType)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header = headers
	req.Header.Set("Accept", "application/x-ndjson, application/json-seq, application/json")
	if err := t.tokens.Apply(ctx, t.client, req, p.Auth); err != nil {
		return nil, err
	}

	t.log.V(1).Info("calling tool", "tool", toolName, "method", method, "url", u.Redacted())
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

// recordSeparatorReader turns the RS bytes of a JSON text sequence into
// newlines so the stream splits like NDJSON.
type recordSeparatorReader struct{ r io.Reader }

func (r *recordSeparatorReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	for i := 0; i < n; i++ {
		if p[i] == 0x1e {
			p[i] = '\n'
		}
	}
	return n, err
}

func send(ctx context.Context, ch chan<- any, v any) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
