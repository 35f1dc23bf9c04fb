package http

import "encoding/json"

// WebhookEnvelope is the JSON-RPC style request body Payme posts to the
// webhook endpoint. Both method and params must be present; their absence is
// a protocol-format error, not a domain error.
type WebhookEnvelope struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method" validate:"required"`
	Params  json.RawMessage `json:"params" validate:"required"`
}

// ErrorObject is the protocol-level structured error.
type ErrorObject struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

// WebhookResponse carries either a result or an error, echoing the request
// id when the gateway sent one.
type WebhookResponse struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result any             `json:"result,omitempty"`
	Error  *ErrorObject    `json:"error,omitempty"`
}
