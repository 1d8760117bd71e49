package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketServer handles WebSocket connections for RPC calls and
// real-time subscriptions.
type WebSocketServer struct {
	upgrader    websocket.Upgrader
	server      *Server
	connections map[string]*wsConnection
	mu          sync.RWMutex
	timeout     time.Duration
}

type wsConnection struct {
	id      string
	conn    *websocket.Conn
	streams map[Stream]struct{}
	send    chan []byte
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWebSocketServer creates a WebSocket server sharing the HTTP
// server's method registry.
func NewWebSocketServer(server *Server, timeout time.Duration) *WebSocketServer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &WebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		server:      server,
		connections: make(map[string]*wsConnection),
		timeout:     timeout,
	}
}

// ServeHTTP upgrades the connection and starts the read and write
// loops.
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	wsConn := &wsConnection{
		id:      fmt.Sprintf("conn_%d", time.Now().UnixNano()),
		conn:    conn,
		streams: make(map[Stream]struct{}),
		send:    make(chan []byte, 256),
		ctx:     ctx,
		cancel:  cancel,
	}

	ws.mu.Lock()
	ws.connections[wsConn.id] = wsConn
	ws.mu.Unlock()

	go ws.readLoop(wsConn)
	go ws.writeLoop(wsConn)
}

func (ws *WebSocketServer) readLoop(wsConn *wsConnection) {
	defer ws.closeConnection(wsConn)

	wsConn.conn.SetReadLimit(512 * 1024)
	wsConn.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	wsConn.conn.SetPongHandler(func(string) error {
		wsConn.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := wsConn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}
		ws.handleMessage(wsConn, message)
	}
}

func (ws *WebSocketServer) writeLoop(wsConn *wsConnection) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-wsConn.ctx.Done():
			return
		case <-ticker.C:
			wsConn.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := wsConn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case message := <-wsConn.send:
			wsConn.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := wsConn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("websocket send failed: %v", err)
				return
			}
		}
	}
}

// handleMessage processes one inbound command. The command and its id
// live at the top level; every other field is the params object.
func (ws *WebSocketServer) handleMessage(wsConn *wsConnection, message []byte) {
	var cmdMap map[string]any
	if err := json.Unmarshal(message, &cmdMap); err != nil {
		ws.sendError(wsConn, ErrInvalidParams("invalid JSON: "+err.Error()), nil)
		return
	}

	command, ok := cmdMap["command"].(string)
	if !ok || command == "" {
		ws.sendError(wsConn, ErrInvalidParams("missing command field"), nil)
		return
	}
	id := cmdMap["id"]
	delete(cmdMap, "command")
	delete(cmdMap, "id")

	var params json.RawMessage
	if len(cmdMap) > 0 {
		params, _ = json.Marshal(cmdMap)
	}

	switch command {
	case "subscribe":
		ws.handleSubscribe(wsConn, params, id, true)
		return
	case "unsubscribe":
		ws.handleSubscribe(wsConn, params, id, false)
		return
	}

	ctx, cancel := context.WithTimeout(wsConn.ctx, ws.timeout)
	defer cancel()

	result, rpcErr := ws.server.execute(ctx, command, params)
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, id)
		return
	}
	ws.sendResponse(wsConn, id, result)
}

type subscribeParams struct {
	Streams []Stream `json:"streams"`
}

func (ws *WebSocketServer) handleSubscribe(wsConn *wsConnection, params json.RawMessage, id any, subscribe bool) {
	p, rpcErr := unmarshalParams[subscribeParams](params)
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, id)
		return
	}
	if len(p.Streams) == 0 {
		ws.sendError(wsConn, ErrInvalidParams("missing streams field"), id)
		return
	}
	for _, stream := range p.Streams {
		if !stream.Valid() {
			ws.sendError(wsConn, ErrInvalidParams("unknown stream: "+string(stream)), id)
			return
		}
	}

	wsConn.mu.Lock()
	for _, stream := range p.Streams {
		if subscribe {
			wsConn.streams[stream] = struct{}{}
		} else {
			delete(wsConn.streams, stream)
		}
	}
	wsConn.mu.Unlock()

	ws.sendResponse(wsConn, id, map[string]any{"subscribed": subscribe})
}

func (ws *WebSocketServer) sendResponse(wsConn *wsConnection, id any, result any) {
	resultMap := toMap(result)
	resultMap["status"] = "success"
	response := map[string]any{
		"type":   "response",
		"result": resultMap,
	}
	if id != nil {
		response["id"] = id
	}
	ws.deliver(wsConn, response)
}

// sendError sends an error response with the error fields at the top
// level.
func (ws *WebSocketServer) sendError(wsConn *wsConnection, rpcErr *Error, id any) {
	response := map[string]any{
		"type":          "response",
		"status":        "error",
		"error":         rpcErr.ErrorString,
		"error_code":    rpcErr.Code,
		"error_message": rpcErr.Message,
	}
	if id != nil {
		response["id"] = id
	}
	ws.deliver(wsConn, response)
}

func (ws *WebSocketServer) deliver(wsConn *wsConnection, response any) {
	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("failed to marshal websocket response: %v", err)
		return
	}
	select {
	case wsConn.send <- data:
	case <-wsConn.ctx.Done():
	default:
		log.Printf("websocket send channel full, closing connection %s", wsConn.id)
		ws.closeConnection(wsConn)
	}
}

func (ws *WebSocketServer) closeConnection(wsConn *wsConnection) {
	wsConn.cancel()

	ws.mu.Lock()
	delete(ws.connections, wsConn.id)
	ws.mu.Unlock()

	wsConn.conn.Close()
}

// Broadcast sends a message to every connection subscribed to stream.
// Slow connections are skipped rather than blocked on.
func (ws *WebSocketServer) Broadcast(stream Stream, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("failed to marshal broadcast message: %v", err)
		return
	}

	ws.mu.RLock()
	defer ws.mu.RUnlock()

	for _, conn := range ws.connections {
		conn.mu.RLock()
		_, subscribed := conn.streams[stream]
		conn.mu.RUnlock()
		if !subscribed {
			continue
		}
		select {
		case conn.send <- data:
		default:
			log.Printf("skipping slow websocket connection %s", conn.id)
		}
	}
}

// SubscriberCount reports how many connections follow a stream.
func (ws *WebSocketServer) SubscriberCount(stream Stream) int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	count := 0
	for _, conn := range ws.connections {
		conn.mu.RLock()
		if _, ok := conn.streams[stream]; ok {
			count++
		}
		conn.mu.RUnlock()
	}
	return count
}

// Close shuts down every open connection.
func (ws *WebSocketServer) Close() {
	ws.mu.Lock()
	conns := make([]*wsConnection, 0, len(ws.connections))
	for _, conn := range ws.connections {
		conns = append(conns, conn)
	}
	ws.mu.Unlock()

	for _, conn := range conns {
		ws.closeConnection(conn)
	}
}
