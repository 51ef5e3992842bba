package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/parleyhq/parley-backend/internal/repository"
)

// fakeServerRepo serves a fixed set of tool server records
type fakeServerRepo struct {
	servers map[uuid.UUID]*repository.ToolServer
}

func (f *fakeServerRepo) Get(ctx context.Context, id uuid.UUID) (*repository.ToolServer, error) {
	return f.servers[id], nil
}

func testClient(repo repository.ToolServerRepository) *Client {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewClient(repo, 5*time.Second, logger)
}

func TestInvoke_UnknownServer(t *testing.T) {
	client := testClient(&fakeServerRepo{servers: map[uuid.UUID]*repository.ToolServer{}})

	_, err := client.Invoke(context.Background(), uuid.New(), "process_message", nil)
	assert.ErrorIs(t, err, ErrUnknownServer)
}

func TestInvoke_InactiveServerIsUnknown(t *testing.T) {
	id := uuid.New()
	repo := &fakeServerRepo{servers: map[uuid.UUID]*repository.ToolServer{
		id: {ID: id, ServerURL: "http://localhost:1", ServerType: TransportHTTP, IsActive: false},
	}}

	_, err := testClient(repo).Invoke(context.Background(), id, "process_message", nil)
	assert.ErrorIs(t, err, ErrUnknownServer)
}

func TestInvoke_UnsupportedTransport(t *testing.T) {
	id := uuid.New()
	repo := &fakeServerRepo{servers: map[uuid.UUID]*repository.ToolServer{
		id: {ID: id, ServerURL: "http://localhost:1", ServerType: "grpc", IsActive: true},
	}}

	_, err := testClient(repo).Invoke(context.Background(), id, "process_message", nil)
	assert.ErrorIs(t, err, ErrUnsupportedTransport)
}

func TestInvoke_HTTPPostsMethodPath(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"enhanced_response": "better answer",
		})
	}))
	defer srv.Close()

	id := uuid.New()
	repo := &fakeServerRepo{servers: map[uuid.UUID]*repository.ToolServer{
		id: {ID: id, ServerURL: srv.URL, ServerType: TransportHTTP, IsActive: true},
	}}

	result, err := testClient(repo).Invoke(context.Background(), id, "process_message", map[string]interface{}{
		"message": "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "/mcp/process_message", gotPath)
	assert.Equal(t, "hello", gotBody["message"])
	assert.Equal(t, "better answer", result["enhanced_response"])
}

func TestInvoke_HTTPNon200IsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	id := uuid.New()
	repo := &fakeServerRepo{servers: map[uuid.UUID]*repository.ToolServer{
		id: {ID: id, ServerURL: srv.URL, ServerType: TransportHTTP, IsActive: true},
	}}

	_, err := testClient(repo).Invoke(context.Background(), id, "process_message", nil)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusInternalServerError, transportErr.Status)
	assert.Contains(t, transportErr.Body, "boom")
}

func wsEcho(t *testing.T, handler func(req jsonRPCRequest) jsonRPCResponse) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var req jsonRPCRequest
		require.NoError(t, conn.ReadJSON(&req))
		require.NoError(t, conn.WriteJSON(handler(req)))
	}))
}

func TestInvoke_WebSocketRoundTrip(t *testing.T) {
	srv := wsEcho(t, func(req jsonRPCRequest) jsonRPCResponse {
		assert.Equal(t, "2.0", req.JSONRPC)
		assert.Equal(t, 1, req.ID)
		assert.Equal(t, "process_message", req.Method)
		result, _ := json.Marshal(map[string]interface{}{"enhanced_response": "socket answer"})
		return jsonRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: result}
	})
	defer srv.Close()

	id := uuid.New()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	repo := &fakeServerRepo{servers: map[uuid.UUID]*repository.ToolServer{
		id: {ID: id, ServerURL: wsURL, ServerType: TransportWebSocket, IsActive: true},
	}}

	result, err := testClient(repo).Invoke(context.Background(), id, "process_message", map[string]interface{}{
		"message": "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "socket answer", result["enhanced_response"])
}

func TestInvoke_WebSocketRemoteError(t *testing.T) {
	srv := wsEcho(t, func(req jsonRPCRequest) jsonRPCResponse {
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RemoteError{Code: -32601, Message: "method not found"},
		}
	})
	defer srv.Close()

	id := uuid.New()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	repo := &fakeServerRepo{servers: map[uuid.UUID]*repository.ToolServer{
		id: {ID: id, ServerURL: wsURL, ServerType: TransportWebSocket, IsActive: true},
	}}

	_, err := testClient(repo).Invoke(context.Background(), id, "process_message", nil)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, -32601, remoteErr.Code)
	assert.Equal(t, "method not found", remoteErr.Message)
}

func TestCheckConnectivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	okID := uuid.New()
	deadID := uuid.New()
	repo := &fakeServerRepo{servers: map[uuid.UUID]*repository.ToolServer{
		okID:   {ID: okID, ServerURL: srv.URL, ServerType: TransportHTTP, IsActive: true},
		deadID: {ID: deadID, ServerURL: "http://127.0.0.1:1", ServerType: TransportHTTP, IsActive: true},
	}}
	client := testClient(repo)

	assert.True(t, client.CheckConnectivity(context.Background(), okID))
	assert.False(t, client.CheckConnectivity(context.Background(), deadID))
	assert.False(t, client.CheckConnectivity(context.Background(), uuid.New()))
}
