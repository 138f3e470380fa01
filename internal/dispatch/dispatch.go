// Package dispatch drives the per-user session lifecycle: it loads and
// persists sessions around state-machine steps and routes the resulting
// messages between the transport and application connectors.
package dispatch

import (
	"context"

	"github.com/appswitch-io/appswitch/internal/config"
	"github.com/appswitch-io/appswitch/internal/fsm"
	"github.com/appswitch-io/appswitch/internal/logging"
	"github.com/appswitch-io/appswitch/internal/routing"
	"github.com/appswitch-io/appswitch/internal/store"
	"github.com/appswitch-io/appswitch/pkg/types"
)

// Publisher delivers messages to a resolved target on the bus.
type Publisher interface {
	PublishInbound(ctx context.Context, msg *types.Message, target routing.Target) error
	PublishOutbound(ctx context.Context, msg *types.Message, target routing.Target) error
	PublishEvent(ctx context.Context, ev *types.Event, target routing.Target) error
}

// Machine is the state machine the dispatcher drives. Satisfied by
// *fsm.Machine; tests substitute failing or pausing implementations.
type Machine interface {
	Handle(ctx context.Context, state fsm.State, cfg *types.Config, sess types.Session, msg *types.Message) (*fsm.Response, error)
}

// Dispatcher is the session lifecycle engine.
type Dispatcher struct {
	cfg      *config.Provider
	sessions *store.SessionStore
	cache    *store.CorrelationCache
	machine  Machine
	pub      Publisher
	locks    *userLocks
}

// New creates a dispatcher.
func New(cfg *config.Provider, sessions *store.SessionStore, cache *store.CorrelationCache, machine Machine, pub Publisher) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		sessions: sessions,
		cache:    cache,
		machine:  machine,
		pub:      pub,
		locks:    newUserLocks(),
	}
}

// ProcessInbound handles a message arriving from the transport side.
// Processing for one user is serialized: the full load/handle/save/
// forward cycle completes before the user's next message starts.
func (d *Dispatcher) ProcessInbound(ctx context.Context, msg *types.Message, connectorName string) error {
	userID := msg.FromAddr
	unlock := d.locks.Lock(userID)
	defer unlock()

	cfg := d.cfg.Current()
	logging.Debug().Str("user", userID).Str("connector", connectorName).
		Str("event", msg.SessionEvent).Msg("processing inbound message")

	// Recovery: abandon the inbound, clear the session, tell the user
	// something went wrong.
	fail := func(err error) error {
		logging.Error().Err(err).Str("user", userID).
			Msg("inbound handling failed, clearing session")
		if clearErr := d.sessions.Clear(ctx, userID); clearErr != nil {
			logging.Error().Err(clearErr).Str("user", userID).
				Msg("failed to clear session during recovery")
		}
		return d.ProcessOutbound(ctx, fsm.ErrorReply(cfg, msg), connectorName)
	}

	sess, err := d.sessions.Load(ctx, userID)
	if err != nil {
		return fail(err)
	}

	var state fsm.State
	switch {
	case !sess.Exists() || msg.SessionEvent == types.SessionNew:
		logging.Info().Str("user", userID).Msg("creating session")
		sess = types.Session{}
		state = fsm.StateStart
		if err := d.sessions.Create(ctx, userID, types.Session{
			types.FieldState: string(state),
		}); err != nil {
			return fail(err)
		}
	case msg.SessionEvent == types.SessionClose:
		if err := d.handleSessionClose(ctx, cfg, sess, msg, connectorName); err != nil {
			return fail(err)
		}
		return nil
	default:
		state = fsm.State(sess.State())
	}

	if err := d.step(ctx, cfg, state, sess, msg, connectorName); err != nil {
		return fail(err)
	}
	return nil
}

// step runs one state-machine transition and applies its effects:
// session persistence first, then inbound forwards, then outbounds.
func (d *Dispatcher) step(ctx context.Context, cfg *types.Config, state fsm.State, sess types.Session, msg *types.Message, connectorName string) error {
	userID := msg.FromAddr

	resp, err := d.machine.Handle(ctx, state, cfg, sess, msg)
	if err != nil {
		return err
	}

	if resp.Next == fsm.StateNone {
		if err := d.sessions.Clear(ctx, userID); err != nil {
			return err
		}
	} else {
		sess.Merge(resp.SessionUpdate)
		sess[types.FieldState] = string(resp.Next)
		if state != resp.Next {
			logging.Info().Str("user", userID).
				Str("from", string(state)).Str("to", string(resp.Next)).
				Msg("state transition")
		}
		if err := d.sessions.Save(ctx, userID, sess); err != nil {
			return err
		}
	}

	table := routing.New(cfg.RoutingTable)
	for _, fwd := range resp.Inbound {
		target, ok := table.Resolve(connectorName, fwd.Endpoint)
		if !ok {
			logRoutingMiss(connectorName, fwd.Endpoint)
			continue
		}
		if err := d.pub.PublishInbound(ctx, fwd.Msg, target); err != nil {
			return err
		}
	}
	for _, out := range resp.Outbound {
		if err := d.ProcessOutbound(ctx, out, connectorName); err != nil {
			return err
		}
	}
	return nil
}

// handleSessionClose forwards the close notification to the active
// application, when there still is one, and clears the session either
// way. No reply is sent to the user.
func (d *Dispatcher) handleSessionClose(ctx context.Context, cfg *types.Config, sess types.Session, msg *types.Message, connectorName string) error {
	userID := msg.FromAddr
	active := sess.ActiveEndpoint()

	if sess.State() == string(fsm.StateSelected) && active != "" {
		if _, ok := cfg.TargetEndpoints()[active]; ok {
			table := routing.New(cfg.RoutingTable)
			if target, ok := table.Resolve(connectorName, active); ok {
				if err := d.pub.PublishInbound(ctx, msg, target); err != nil {
					logging.Error().Err(err).Str("user", userID).
						Msg("failed to forward session close")
				}
			} else {
				logRoutingMiss(connectorName, active)
			}
		}
	}

	return d.sessions.Clear(ctx, userID)
}

// ProcessOutbound handles a message heading to the user, whether
// emitted by an application or synthesized by the router itself. Every
// outbound is recorded in the correlation cache before it leaves so
// late delivery events can find their way back.
func (d *Dispatcher) ProcessOutbound(ctx context.Context, msg *types.Message, connectorName string) error {
	cfg := d.cfg.Current()
	userID := msg.ToAddr
	logging.Debug().Str("user", userID).Str("connector", connectorName).
		Msg("processing outbound message")

	sess, err := d.sessions.Load(ctx, userID)
	if err != nil {
		return err
	}
	if sess.Exists() && msg.SessionEvent == types.SessionClose {
		if err := d.sessions.Clear(ctx, userID); err != nil {
			return err
		}
	}

	if err := d.cache.Put(ctx, msg.MessageID, userID); err != nil {
		return err
	}

	target, ok := routing.New(cfg.RoutingTable).Resolve(connectorName, msg.EndpointOrDefault())
	if !ok {
		logRoutingMiss(connectorName, msg.EndpointOrDefault())
		return nil
	}
	return d.pub.PublishOutbound(ctx, msg, target)
}

// ProcessEvent routes a delivery event back to the application serving
// the user the original outbound was sent to. Events that cannot be
// correlated, or whose session has no active endpoint, are dropped.
func (d *Dispatcher) ProcessEvent(ctx context.Context, ev *types.Event, connectorName string) error {
	cfg := d.cfg.Current()

	userID, err := d.cache.Get(ctx, ev.UserMessageID)
	if err != nil {
		return err
	}
	if userID == "" {
		logging.Warn().Str("message_id", ev.UserMessageID).
			Msg("dropping event for unknown outbound message")
		return nil
	}

	sess, err := d.sessions.Load(ctx, userID)
	if err != nil {
		return err
	}
	active := sess.ActiveEndpoint()
	if active == "" {
		logging.Warn().Str("user", userID).
			Msg("dropping event, session has no active endpoint")
		return nil
	}

	target, ok := routing.New(cfg.RoutingTable).Resolve(connectorName, active)
	if !ok {
		logRoutingMiss(connectorName, active)
		return nil
	}
	return d.pub.PublishEvent(ctx, ev, target)
}

func logRoutingMiss(connector, endpoint string) {
	logging.Warn().Str("connector", connector).Str("endpoint", endpoint).
		Msg("no routing information, dropping message")
}
