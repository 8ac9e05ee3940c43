package websocket

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"

	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/auth"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/json"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/manual"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/base"
	providers "github.com/universal-tool-calling-protocol/go-utcp-adapters/src/providers/websocket"
	"github.com/universal-tool-calling-protocol/go-utcp-adapters/src/tools"
)

// manualRequest is the text frame that asks a WebSocket provider for its manual.
const manualRequest = "manual"

type WebSocketClientTransport struct {
	handshakeTimeout time.Duration
	log              logr.Logger
}

func NewWebSocketTransport(logger logr.Logger) *WebSocketClientTransport {
	return &WebSocketClientTransport{
		handshakeTimeout: 30 * time.Second,
		log:              logger.WithName("websocket"),
	}
}

func (t *WebSocketClientTransport) dial(ctx context.Context, prov *providers.WebSocketProvider, rawURL string) (*websocket.Conn, error) {
	hdr := http.Header{}
	for k, v := range prov.Headers {
		hdr.Set(k, v)
	}
	switch a := prov.Auth.(type) {
	case nil:
	case *auth.ApiKeyAuth:
		if a.Location == "query" {
			u, err := url.Parse(rawURL)
			if err != nil {
				return nil, err
			}
			q := u.Query()
			q.Set(a.VarName, a.APIKey)
			u.RawQuery = q.Encode()
			rawURL = u.String()
		} else {
			hdr.Set(a.VarName, a.APIKey)
		}
	case *auth.BasicAuth:
		hdr.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(a.Username+":"+a.Password)))
	default:
		return nil, fmt.Errorf("unsupported auth type %T for websocket provider", a)
	}

	dialer := &websocket.Dialer{HandshakeTimeout: t.handshakeTimeout}
	if prov.Protocol != nil && *prov.Protocol != "" {
		dialer.Subprotocols = []string{*prov.Protocol}
	}
	conn, _, err := dialer.DialContext(ctx, rawURL, hdr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	return conn, nil
}

// RegisterToolProvider sends a "manual" frame and decodes the reply as a UTCP manual.
func (t *WebSocketClientTransport) RegisterToolProvider(ctx context.Context, prov base.Provider) ([]tools.Tool, error) {
	wsProv, ok := prov.(*providers.WebSocketProvider)
	if !ok {
		return nil, errors.New("WebSocketClientTransport can only be used with WebSocketProvider")
	}
	conn, err := t.dial(ctx, wsProv, wsProv.URL)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(manualRequest)); err != nil {
		return nil, err
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read manual from %s: %w", wsProv.Name, err)
	}
	m, err := manual.Parse(msg, false)
	if err != nil {
		return nil, err
	}
	for i := range m.Tools {
		if m.Tools[i].Provider == nil {
			m.Tools[i].Provider = wsProv
		}
	}
	t.log.V(1).Info("discovered tools", "provider", wsProv.Name, "tools", len(m.Tools))
	return m.Tools, nil
}

func (t *WebSocketClientTransport) DeregisterToolProvider(ctx context.Context, prov base.Provider) error {
	if _, ok := prov.(*providers.WebSocketProvider); !ok {
		return errors.New("WebSocketClientTransport can only be used with WebSocketProvider")
	}
	return nil
}

// toolURL maps the discovery endpoint to the per-tool endpoint: ws://host/tools -> ws://host/{tool}.
func toolURL(base, toolName string) string {
	u := strings.TrimSuffix(strings.TrimSuffix(base, "/"), "/tools")
	if strings.HasSuffix(u, "/"+toolName) {
		return u
	}
	return u + "/" + toolName
}

// CallTool dials the tool endpoint, sends the arguments as one JSON frame and
// collects frames until the server closes. A single frame is returned as its
// value, several frames as a list. Frames that are not JSON are kept as text.
func (t *WebSocketClientTransport) CallTool(ctx context.Context, toolName string, args map[string]any, prov base.Provider) (any, error) {
	wsProv, ok := prov.(*providers.WebSocketProvider)
	if !ok {
		return nil, errors.New("WebSocketClientTransport can only be used with WebSocketProvider")
	}
	conn, err := t.dial(ctx, wsProv, toolURL(wsProv.URL, toolName))
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return nil, err
	}

	var results []any
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				break
			}
			return nil, fmt.Errorf("call tool %s: %w", toolName, err)
		}
		var part any
		if err := json.Unmarshal(msg, &part); err != nil {
			part = string(msg)
		}
		results = append(results, part)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}
