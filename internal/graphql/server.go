package graphql

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/vektah/gqlparser/v2/ast"
)

// request is the standard GraphQL-over-HTTP request envelope.
type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// response is the standard GraphQL-over-HTTP response envelope.
type response struct {
	Data   interface{}   `json:"data,omitempty"`
	Errors []responseErr `json:"errors,omitempty"`
}

type responseErr struct {
	Message   string            `json:"message"`
	Extensions map[string]string `json:"extensions,omitempty"`
}

func errResponse(err error) response {
	if ae, ok := err.(ApiError); ok {
		return response{Errors: []responseErr{{Message: ae.Message, Extensions: map[string]string{"code": string(ae.Code)}}}}
	}
	ie := internalError(err)
	return response{Errors: []responseErr{{Message: ie.Message, Extensions: map[string]string{"code": string(ie.Code)}}}}
}

// Server is the HTTP + WebSocket front door for the Resolver, grounded
// on the teacher's rpc/server.go thin-transport-over-handlers shape.
type Server struct {
	resolver *Resolver
	upgrader websocket.Upgrader
}

// NewServer constructs a Server bound to resolver.
func NewServer(resolver *Resolver) *Server {
	return &Server{resolver: resolver, upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096}}
}

// ServeHTTP implements net/http's handler interface for POST
// /api/graphql (spec.md §6).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, errResponse(ApiError{Code: ErrInvalidInt, Message: "malformed request body"}))
		return
	}

	op, err := parseAndValidate(req.Query, req.OperationName)
	if err != nil {
		writeJSON(w, errResponse(ApiError{Code: ErrInvalidInt, Message: err.Error()}))
		return
	}
	if op.Operation == ast.Subscription {
		writeJSON(w, errResponse(ApiError{Code: ErrInvalidInt, Message: "subscriptions must use the websocket endpoint"}))
		return
	}
	if len(op.SelectionSet) != 1 {
		writeJSON(w, errResponse(ApiError{Code: ErrInvalidInt, Message: "exactly one root field is supported per request"}))
		return
	}
	field, ok := op.SelectionSet[0].(*ast.Field)
	if !ok {
		writeJSON(w, errResponse(ApiError{Code: ErrInvalidInt, Message: "root selection must be a field"}))
		return
	}

	data, execErr := s.execute(r.Context(), field, req.Variables)
	if execErr != nil {
		writeJSON(w, errResponse(execErr))
		return
	}
	writeJSON(w, response{Data: map[string]interface{}{field.Alias: data}})
}

func writeJSON(w http.ResponseWriter, resp response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Errorf("encode graphql response: %v", err)
	}
}

// argValue resolves one argument's runtime value, substituting
// variables, returning nil if the argument was omitted.
func argValue(field *ast.Field, name string, vars map[string]interface{}) (interface{}, error) {
	arg := field.Arguments.ForName(name)
	if arg == nil {
		return nil, nil
	}
	return arg.Value.Value(vars)
}

func argUint64(field *ast.Field, name string, vars map[string]interface{}) (*uint64, error) {
	v, err := argValue(field, name, vars)
	if err != nil || v == nil {
		return nil, err
	}
	return parseUint64Arg(v)
}

func argString(field *ast.Field, name string, vars map[string]interface{}) (*string, error) {
	v, err := argValue(field, name, vars)
	if err != nil || v == nil {
		return nil, err
	}
	s, _ := v.(string)
	return &s, nil
}

func argInt32(field *ast.Field, name string, vars map[string]interface{}) (*int32, error) {
	v, err := argValue(field, name, vars)
	if err != nil || v == nil {
		return nil, err
	}
	switch n := v.(type) {
	case int64:
		i := int32(n)
		return &i, nil
	case int:
		i := int32(n)
		return &i, nil
	case float64:
		i := int32(n)
		return &i, nil
	}
	return nil, ApiError{Code: ErrInvalidInt, Message: name + " must be an integer"}
}

func parseUint64Arg(v interface{}) (*uint64, error) {
	switch n := v.(type) {
	case string:
		u, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			return nil, ApiError{Code: ErrInvalidInt, Message: "malformed UInt64"}
		}
		return &u, nil
	case int64:
		u := uint64(n)
		return &u, nil
	case int:
		u := uint64(n)
		return &u, nil
	case float64:
		u := uint64(n)
		return &u, nil
	}
	return nil, ApiError{Code: ErrInvalidInt, Message: "malformed UInt64"}
}

func connectionArgs(field *ast.Field, vars map[string]interface{}) (ConnectionArgs, error) {
	var args ConnectionArgs
	var err error
	if args.First, err = argInt32(field, "first", vars); err != nil {
		return args, err
	}
	if args.After, err = argString(field, "after", vars); err != nil {
		return args, err
	}
	if args.Last, err = argInt32(field, "last", vars); err != nil {
		return args, err
	}
	if args.Before, err = argString(field, "before", vars); err != nil {
		return args, err
	}
	return args, nil
}
