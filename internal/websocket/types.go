// internal/websocket/types.go
package websocket

import "encoding/json"

// RPCRequest is a method invocation sent by the frontend.
type RPCRequest struct {
	ID     string            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// RPCResponse carries the result of a request back to the frontend.
type RPCResponse struct {
	ID     string `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// WSEvent is a server-initiated push, such as "composition:changed".
type WSEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// WSMessage is the envelope for all traffic on the socket.
type WSMessage struct {
	// Kind is one of "rpc_request", "rpc_response", "event".
	Kind string `json:"kind"`

	Request  *RPCRequest  `json:"request,omitempty"`
	Response *RPCResponse `json:"response,omitempty"`
	Event    *WSEvent     `json:"event,omitempty"`
}
