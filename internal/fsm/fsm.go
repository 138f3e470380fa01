// Package fsm implements the per-user menu state machine. Handlers are
// pure functions of (config, session, message); all I/O belongs to the
// dispatch engine that drives them.
package fsm

import (
	"context"
	"fmt"

	"github.com/appswitch-io/appswitch/internal/channel"
	"github.com/appswitch-io/appswitch/internal/logging"
	"github.com/appswitch-io/appswitch/internal/menu"
	"github.com/appswitch-io/appswitch/pkg/types"
)

// State names a position in the per-user dialog.
type State string

// The four dialog states. StateNone as a next state terminates the
// session.
const (
	StateNone     State = ""
	StateStart    State = "start"
	StateSelect   State = "select"
	StateSelected State = "selected"
	StateBadInput State = "bad_input"
)

// Forward pairs a message with the application endpoint it should be
// delivered to.
type Forward struct {
	Msg      *types.Message
	Endpoint string
}

// Response is what a state handler hands back to the dispatch engine:
// the next state (StateNone terminates the session), a patch to merge
// into the session, and the messages to route.
type Response struct {
	Next          State
	SessionUpdate map[string]string
	Inbound       []Forward
	Outbound      []*types.Message
}

// Handler is a single state's transition function. Handlers take a
// context because the engine treats every handler as a suspension
// point, even when the implementation is synchronous.
type Handler func(ctx context.Context, cfg *types.Config, sess types.Session, msg *types.Message) (*Response, error)

// Machine dispatches inbound messages to the handler for the session's
// current state.
type Machine struct {
	adapter  channel.Adapter
	handlers map[State]Handler
}

// New creates a state machine using the given channel adapter for reply
// construction.
func New(adapter channel.Adapter) *Machine {
	m := &Machine{adapter: adapter}
	m.handlers = map[State]Handler{
		StateStart:    m.handleStart,
		StateSelect:   m.handleSelect,
		StateSelected: m.handleSelected,
		StateBadInput: m.handleBadInput,
	}
	return m
}

// Handle runs the handler for the given state.
func (m *Machine) Handle(ctx context.Context, state State, cfg *types.Config, sess types.Session, msg *types.Message) (*Response, error) {
	handler, ok := m.handlers[state]
	if !ok {
		return nil, fmt.Errorf("unknown session state %q", state)
	}
	return handler(ctx, cfg, sess, msg)
}

// handleStart presents the menu and snapshots the endpoint list into
// the session. The snapshot, not live config, is what later resolves
// the user's numeric choice.
func (m *Machine) handleStart(ctx context.Context, cfg *types.Config, sess types.Session, msg *types.Message) (*Response, error) {
	reply := m.adapter.FirstReply(cfg, sess, msg)
	endpoints, err := types.EncodeEndpoints(cfg.EndpointNames())
	if err != nil {
		return nil, err
	}
	return &Response{
		Next:          StateSelect,
		SessionUpdate: map[string]string{types.FieldEndpoints: endpoints},
		Outbound:      []*types.Message{reply},
	}, nil
}

func (m *Machine) handleSelect(ctx context.Context, cfg *types.Config, sess types.Session, msg *types.Message) (*Response, error) {
	endpoints, err := sess.Endpoints()
	if err != nil {
		return nil, err
	}
	endpoint, ok := menu.ChooseEndpoint(msg.ContentText(), endpoints)
	if !ok {
		return &Response{
			Next:     StateBadInput,
			Outbound: []*types.Message{m.adapter.InvalidInputReply(cfg, sess, msg)},
		}, nil
	}

	if _, ok := cfg.TargetEndpoints()[endpoint]; !ok {
		logging.Warn().Str("user", msg.FromAddr).Str("endpoint", endpoint).
			Msg("configuration change forced session termination")
		return &Response{
			Next:     StateNone,
			Outbound: []*types.Message{ErrorReply(cfg, msg)},
		}, nil
	}

	logging.Info().Str("user", msg.FromAddr).Str("endpoint", endpoint).
		Msg("switched to endpoint")
	return &Response{
		Next:          StateSelected,
		SessionUpdate: map[string]string{types.FieldActiveEndpoint: endpoint},
		Inbound:       []Forward{{Msg: msg.Forwarded(), Endpoint: endpoint}},
	}, nil
}

func (m *Machine) handleSelected(ctx context.Context, cfg *types.Config, sess types.Session, msg *types.Message) (*Response, error) {
	active := sess.ActiveEndpoint()
	if _, ok := cfg.TargetEndpoints()[active]; !ok {
		logging.Warn().Str("user", msg.FromAddr).Str("endpoint", active).
			Msg("configuration change forced session termination")
		return &Response{
			Next:     StateNone,
			Outbound: []*types.Message{ErrorReply(cfg, msg)},
		}, nil
	}
	return &Response{
		Next:    StateSelected,
		Inbound: []Forward{{Msg: msg, Endpoint: active}},
	}, nil
}

// handleBadInput accepts only "1" (the try-again option); anything else
// repeats the invalid-input prompt.
func (m *Machine) handleBadInput(ctx context.Context, cfg *types.Config, sess types.Session, msg *types.Message) (*Response, error) {
	if _, ok := menu.ParseChoice(msg.ContentText(), 1, 1); !ok {
		return &Response{
			Next:     StateBadInput,
			Outbound: []*types.Message{m.adapter.InvalidInputReply(cfg, sess, msg)},
		}, nil
	}
	return m.handleStart(ctx, cfg, sess, msg)
}

// ErrorReply builds the fatal error reply sent when a session has to be
// terminated. The reply closes the transport session.
func ErrorReply(cfg *types.Config, msg *types.Message) *types.Message {
	return msg.Reply(cfg.ErrorMessage, false)
}
