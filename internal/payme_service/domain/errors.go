package domain

import "fmt"

// Payme protocol error codes. Permission, method and internal errors use the
// JSON-RPC reserved band; account errors sit in the gateway's documented
// -31050..-31099 range, with distinct codes per failure kind.
const (
	CodeInternalServiceError int32 = -32400
	CodePermissionDenied     int32 = -32504
	CodeMethodNotFound       int32 = -32601
	CodeIncorrectAmount      int32 = -31001
	CodeInvalidAccount       int32 = -31050
	CodeAccountDoesNotExist  int32 = -31051
)

// ProtocolError is a gateway-visible failure. Handlers raise it, the
// dispatcher serializes it verbatim into the response error object.
type ProtocolError struct {
	Code    int32
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("payme protocol error %d: %s", e.Code, e.Message)
}

func NewPermissionDenied(message string) *ProtocolError {
	return &ProtocolError{Code: CodePermissionDenied, Message: message}
}

func NewMethodNotFound(message string) *ProtocolError {
	return &ProtocolError{Code: CodeMethodNotFound, Message: message}
}

func NewInternalServiceError(message string) *ProtocolError {
	return &ProtocolError{Code: CodeInternalServiceError, Message: message}
}

func NewIncorrectAmount(message string) *ProtocolError {
	return &ProtocolError{Code: CodeIncorrectAmount, Message: message}
}

func NewInvalidAccount(message string) *ProtocolError {
	return &ProtocolError{Code: CodeInvalidAccount, Message: message}
}

func NewAccountDoesNotExist(message string) *ProtocolError {
	return &ProtocolError{Code: CodeAccountDoesNotExist, Message: message}
}
