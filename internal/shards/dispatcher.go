package shards

import (
	"context"

	"renoplan/internal/logging"
	"renoplan/internal/perception"
	"renoplan/internal/session"
	"renoplan/internal/store"
	"renoplan/internal/types"
	"renoplan/internal/usage"
)

// TurnRecorder persists finished turns.
type TurnRecorder interface {
	StoreSessionTurn(ctx context.Context, t store.Turn) error
}

// Dispatcher routes each turn to a shard and records the outcome.
type Dispatcher struct {
	router    perception.Router
	shards    *Manager
	recorder  TurnRecorder
	snapshots store.SnapshotStore
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTurnRecorder records every turn in the history store.
func WithTurnRecorder(r TurnRecorder) DispatcherOption {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithSnapshots saves the session after every turn.
func WithSnapshots(s store.SnapshotStore) DispatcherOption {
	return func(d *Dispatcher) { d.snapshots = s }
}

// NewDispatcher creates a dispatcher over a router and registered shards.
func NewDispatcher(router perception.Router, shards *Manager, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{router: router, shards: shards}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Process handles one user turn. It never returns nil; failures are carried
// in Response.Err with a user-facing Text.
func (d *Dispatcher) Process(ctx context.Context, sess *session.Session, text string) *Response {
	turn := sess.NextTurn()
	req := Request{
		Text:             text,
		AttachReferences: sess.AttachReferences(),
	}
	for _, ref := range sess.References.List() {
		req.Uploads = append(req.Uploads, ref.Filename)
	}

	_, hasRendering := sess.LastRendering()
	decision := d.router.Route(ctx, perception.Utterance{
		Text:              text,
		HasUploadedImage:  len(req.attached()) > 0,
		HasPriorRendering: hasRendering,
	})
	if err := decision.Err(); err != nil {
		logging.RoutingDebug("turn %d: %v (%s)", turn, err, decision.Reason)
	}
	logging.Routing("turn %d -> %s: %s", turn, decision.Destination, decision.Reason)

	resp := d.dispatch(ctx, sess, decision.Destination, req)
	resp.Destination = decision.Destination
	resp.Decision = decision

	if resp.Rendering != nil {
		sess.SetAttachReferences(false)
	}
	d.persist(ctx, sess, turn, text, resp)
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, sess *session.Session, dest perception.Destination, req Request) *Response {
	shard, err := d.shards.Get(dest)
	if err != nil {
		return &Response{Err: err, Text: types.UserMessage(err)}
	}

	ctx = usage.WithAgent(ctx, shard.Name(), sess.ID)
	resp, err := shard.Handle(ctx, sess, req)
	if err != nil {
		logging.ShardsError("%s shard failed: %v", shard.Name(), err)
		return &Response{Shard: shard.Name(), Err: err, Text: types.UserMessage(err)}
	}
	resp.Shard = shard.Name()
	return resp
}

// persist failures are logged and never fail the turn.
func (d *Dispatcher) persist(ctx context.Context, sess *session.Session, turn int, text string, resp *Response) {
	if d.recorder != nil {
		err := d.recorder.StoreSessionTurn(ctx, store.Turn{
			SessionID:   sess.ID,
			Number:      turn,
			UserInput:   text,
			Destination: string(resp.Destination),
			Response:    resp.Text,
		})
		if err != nil {
			logging.SessionWarn("failed to record turn %d: %v", turn, err)
		}
	}
	if d.snapshots != nil {
		if err := session.Save(ctx, d.snapshots, sess); err != nil {
			logging.SessionWarn("failed to save session %s: %v", sess.ID, err)
		}
	}
}
