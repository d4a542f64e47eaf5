package jsonrpc

// Request is a JSON-RPC 2.0 Request. A request without an ID is a
// notification and gets no response.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 Response
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 Error
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// JSON-RPC 2.0 standard error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// Server-defined error codes (-32000 ~ -32099)
const (
	ErrPermissionDenied = -32001 // Backlog returned 403
	ErrUnavailable      = -32002 // Backlog rate limit hit
	ErrUnauthenticated  = -32003 // Backlog rejected the API key
)

// NewResponse builds a response for id carrying either result or rpcErr.
func NewResponse(id interface{}, result interface{}, rpcErr *Error) Response {
	if rpcErr != nil {
		return Response{JSONRPC: "2.0", ID: id, Error: rpcErr}
	}
	return Response{JSONRPC: "2.0", ID: id, Result: result}
}
