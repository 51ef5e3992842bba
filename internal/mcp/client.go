package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/parleyhq/parley-backend/internal/repository"
)

// Transport tags stored on tool server records.
const (
	TransportHTTP      = "http"
	TransportWebSocket = "websocket"
)

// jsonRPCRequest is the envelope sent over the websocket transport.
type jsonRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RemoteError    `json:"error,omitempty"`
}

// Client invokes methods on external tool servers. Each call is bounded by
// the configured timeout; the client holds no persistent connections.
type Client struct {
	servers    repository.ToolServerRepository
	httpClient *http.Client
	timeout    time.Duration
	logger     *logrus.Logger
}

// NewClient creates a new tool server client
func NewClient(servers repository.ToolServerRepository, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		servers:    servers,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		logger:     logger,
	}
}

// Invoke calls a method on the given tool server and returns the decoded
// result object.
func (c *Client) Invoke(ctx context.Context, serverID uuid.UUID, method string, params map[string]interface{}) (map[string]interface{}, error) {
	server, err := c.resolve(ctx, serverID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch server.ServerType {
	case TransportHTTP:
		return c.invokeHTTP(ctx, server, method, params)
	case TransportWebSocket:
		return c.invokeWebSocket(ctx, server, method, params)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransport, server.ServerType)
	}
}

// CheckConnectivity performs a minimal reachability probe: GET for http,
// dial and close for websocket. Used by admin tooling only.
func (c *Client) CheckConnectivity(ctx context.Context, serverID uuid.UUID) bool {
	server, err := c.resolve(ctx, serverID)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch server.ServerType {
	case TransportHTTP:
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.ServerURL, nil)
		if err != nil {
			return false
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	case TransportWebSocket:
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, server.ServerURL, nil)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	default:
		return false
	}
}

func (c *Client) resolve(ctx context.Context, serverID uuid.UUID) (*repository.ToolServer, error) {
	server, err := c.servers.Get(ctx, serverID)
	if err != nil {
		return nil, err
	}
	if server == nil || !server.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrUnknownServer, serverID)
	}
	return server, nil
}

func (c *Client) invokeHTTP(ctx context.Context, server *repository.ToolServer, method string, params map[string]interface{}) (map[string]interface{}, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(server.ServerURL, "/") + "/mcp/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapTimeout(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &TransportError{Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TransportError{Body: fmt.Sprintf("decoding response: %v", err)}
	}

	return result, nil
}

// invokeWebSocket sends a single JSON-RPC 2.0 request over a fresh
// connection and reads exactly one response.
func (c *Client) invokeWebSocket(ctx context.Context, server *repository.ToolServer, method string, params map[string]interface{}) (map[string]interface{}, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, server.ServerURL, nil)
	if err != nil {
		return nil, mapTimeout(err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
		conn.SetReadDeadline(deadline)
	}

	if err := conn.WriteJSON(jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}); err != nil {
		return nil, mapTimeout(err)
	}

	_, message, err := conn.ReadMessage()
	if err != nil {
		return nil, mapTimeout(err)
	}

	var resp jsonRPCResponse
	if err := json.Unmarshal(message, &resp); err != nil {
		return nil, &TransportError{Body: fmt.Sprintf("decoding response: %v", err)}
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	var result map[string]interface{}
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &result); err != nil {
			return nil, &TransportError{Body: fmt.Sprintf("decoding result: %v", err)}
		}
	}
	if result == nil {
		result = map[string]interface{}{}
	}

	return result, nil
}

func mapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTransportTimeout
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTransportTimeout
	}

	return &TransportError{Body: err.Error()}
}
