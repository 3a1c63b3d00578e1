package command

import (
	"encoding/json"
	"net/http"
)

// Name identifies a remote command.
type Name string

const (
	Ping   Name = "ping"
	Status Name = "status"
	Deploy Name = "deploy"
)

// ExecutePath is the route of the execution endpoint.
const ExecutePath = "/execute"

// RequestIDHeader correlates a client invocation with the server side logs.
const RequestIDHeader = "X-Request-Id"

var registered = []Name{Ping, Status, Deploy}

// Registered returns every known command in a stable order.
func Registered() []Name {
	out := make([]Name, len(registered))
	copy(out, registered)
	return out
}

// Lookup resolves a raw identifier against the registry.
func Lookup(id string) (Name, bool) {
	for _, name := range registered {
		if string(name) == id {
			return name, true
		}
	}
	return "", false
}

func (n Name) Registered() bool {
	_, ok := Lookup(string(n))
	return ok
}

// Request is the body of POST /execute.
type Request struct {
	Command   Name  `json:"command"`
	Arguments []any `json:"arguments"`
}

// NewRequest never leaves Arguments nil so it always encodes as an array.
func NewRequest(name Name, args ...any) Request {
	if args == nil {
		args = []any{}
	}
	return Request{Command: name, Arguments: args}
}

// ResultResponse is the body of a successful response.
type ResultResponse struct {
	Result json.RawMessage `json:"result"`
}

// ErrorResponse is the body of every non-200 response.
type ErrorResponse struct {
	Error *ErrorResponseError `json:"error,omitempty"`
}

type ErrorResponseError struct {
	Message *string `json:"message,omitempty"`
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{
		Error: &ErrorResponseError{
			Message: &message,
		},
	}
}

// Valid reports whether both the error object and its message are present.
func (e ErrorResponse) Valid() bool {
	return e.Error != nil && e.Error.Message != nil
}

func (e ErrorResponse) GetMessage() string {
	if !e.Valid() {
		return ""
	}
	return *e.Error.Message
}

// WriteResult sends {"result": raw}. A nil raw is encoded as null.
func WriteResult(w http.ResponseWriter, statusCode int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ResultResponse{Result: raw})
}

// WriteError sends {"error": {"message": message}}.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(NewErrorResponse(message))
}
