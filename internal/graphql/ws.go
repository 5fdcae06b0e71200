package graphql

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/vektah/gqlparser/v2/ast"
)

// wsMessage is the graphql-transport-ws envelope (connection_init,
// connection_ack, subscribe, next, complete, error).
type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServeWS upgrades r to a websocket and runs the graphql-transport-ws
// subscription protocol until the client disconnects (spec.md §6's
// `/ws/graphql`). Only the blockAdded/accountUpdated subscriptions are
// supported; a query/mutation sent over this transport is rejected.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	subs := map[string]context.CancelFunc{}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "connection_init":
			if err := conn.WriteJSON(wsMessage{Type: "connection_ack"}); err != nil {
				return
			}
		case "subscribe":
			var sub struct {
				Query         string                 `json:"query"`
				OperationName string                 `json:"operationName"`
				Variables     map[string]interface{} `json:"variables"`
			}
			if err := json.Unmarshal(msg.Payload, &sub); err != nil {
				s.wsError(conn, msg.ID, err)
				continue
			}
			subCtx, subCancel := context.WithCancel(ctx)
			subs[msg.ID] = subCancel
			go s.runSubscription(subCtx, conn, msg.ID, sub.Query, sub.OperationName, sub.Variables)
		case "complete":
			if subCancel, ok := subs[msg.ID]; ok {
				subCancel()
				delete(subs, msg.ID)
			}
		}
	}
}

func (s *Server) runSubscription(ctx context.Context, conn *websocket.Conn, id, query, opName string, vars map[string]interface{}) {
	op, err := parseAndValidate(query, opName)
	if err != nil {
		s.wsError(conn, id, err)
		return
	}
	if op.Operation != ast.Subscription || len(op.SelectionSet) != 1 {
		s.wsError(conn, id, ApiError{Code: ErrInvalidInt, Message: "exactly one subscription field is required"})
		return
	}
	field, ok := op.SelectionSet[0].(*ast.Field)
	if !ok {
		s.wsError(conn, id, ApiError{Code: ErrInvalidInt, Message: "root selection must be a field"})
		return
	}

	switch field.Name {
	case "blockAdded":
		ch := s.resolver.hub.SubscribeBlockAdded(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case b, ok := <-ch:
				if !ok {
					return
				}
				s.wsNext(conn, id, field.Alias, toBlockModel(b))
			}
		}
	case "accountUpdated":
		addr, err := argString(field, "address", vars)
		if err != nil || addr == nil {
			s.wsError(conn, id, ApiError{Code: ErrInvalidID, Message: "address is required"})
			return
		}
		ch := s.resolver.hub.SubscribeAccountUpdated(ctx, *addr)
		for {
			select {
			case <-ctx.Done():
				return
			case a, ok := <-ch:
				if !ok {
					return
				}
				s.wsNext(conn, id, field.Alias, toAccountModel(a))
			}
		}
	default:
		s.wsError(conn, id, ApiError{Code: ErrInvalidID, Message: "unknown subscription " + field.Name})
	}
}

func (s *Server) wsNext(conn *websocket.Conn, id, alias string, data interface{}) {
	payload, err := json.Marshal(map[string]interface{}{"data": map[string]interface{}{alias: data}})
	if err != nil {
		log.Errorf("marshal subscription payload: %v", err)
		return
	}
	_ = conn.WriteJSON(wsMessage{ID: id, Type: "next", Payload: payload})
}

func (s *Server) wsError(conn *websocket.Conn, id string, err error) {
	resp := errResponse(err)
	payload, marshalErr := json.Marshal(resp.Errors)
	if marshalErr != nil {
		log.Errorf("marshal subscription error: %v", marshalErr)
		return
	}
	_ = conn.WriteJSON(wsMessage{ID: id, Type: "error", Payload: payload})
}
