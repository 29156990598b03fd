// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package eventprocessor implements the routing layer between the
// external interface (HTTP handlers, preload) and the registered feed
// handlers: it owns the by-name and by-verb registries, enqueues
// asynchronous operations onto the task queue, and runs consume and
// preload synchronously.
package eventprocessor

import (
	"context"
	"fmt"

	"github.com/sh4yy/feedstream/internal/feed"
	"github.com/sh4yy/feedstream/internal/feed/feedstore"
	"github.com/sh4yy/feedstream/internal/logging"
	"github.com/sh4yy/feedstream/internal/taskqueue"
)

// PublishPayload is the input to Publish: a verb-addressed item bound
// for every handler registered under that verb.
type PublishPayload struct {
	Verb       string
	ProducerID string
	ConsumerID string
	ItemID     string
	Timestamp  int64
}

// RetractPayload is the input to Retract, symmetric with PublishPayload.
type RetractPayload struct {
	Verb       string
	ProducerID string
	ConsumerID string
	ItemID     string
}

// Processor is the single entry point every external caller (the HTTP
// boundary, the preloader) goes through to reach a feed handler. It
// holds two registries — by feed name and by verb — built once at boot
// and read-mostly afterward (§5: registries are read-mostly after
// boot).
type Processor struct {
	queue  *taskqueue.Queue
	byName map[string]feed.Handler
	byVerb map[string][]feed.Handler
}

// New creates a Processor dispatching asynchronous work onto queue.
func New(queue *taskqueue.Queue) *Processor {
	return &Processor{
		queue:  queue,
		byName: make(map[string]feed.Handler),
		byVerb: make(map[string][]feed.Handler),
	}
}

// Register adds handler to the by-name and by-verb registries.
// Re-registering the same name with the same handler instance is a
// no-op; registering a different handler under a name already taken
// returns ErrAlreadyRegistered.
func (p *Processor) Register(handler feed.Handler) error {
	name := handler.Name()
	if existing, ok := p.byName[name]; ok {
		if existing == handler {
			return nil
		}
		return ErrAlreadyRegistered
	}
	p.byName[name] = handler
	for _, verb := range handler.Verbs() {
		p.byVerb[verb] = append(p.byVerb[verb], handler)
	}
	return nil
}

// Publish enqueues handler.Add for every handler bound to payload.Verb.
// It returns once the jobs are enqueued, not once they have run.
// UnknownVerb is returned synchronously if no handler is bound.
func (p *Processor) Publish(ctx context.Context, payload PublishPayload) error {
	handlers, ok := p.byVerb[payload.Verb]
	if !ok || len(handlers) == 0 {
		return feed.UnknownVerb(payload.Verb)
	}

	add := feed.AddPayload{
		ProducerID: payload.ProducerID,
		ConsumerID: payload.ConsumerID,
		ItemID:     payload.ItemID,
		Verb:       payload.Verb,
		Timestamp:  payload.Timestamp,
	}

	for _, h := range handlers {
		h := h
		if err := p.queue.Enqueue(func(ctx context.Context) error {
			if err := h.Add(ctx, add, true); err != nil {
				logging.Ctx(ctx).Error().Err(err).Str("feed", h.Name()).Msg("add failed")
				return err
			}
			return nil
		}); err != nil {
			return feed.QueueClosed()
		}
	}
	return nil
}

// Retract enqueues handler.Retract for every handler bound to
// payload.Verb, symmetric with Publish.
func (p *Processor) Retract(ctx context.Context, payload RetractPayload) error {
	handlers, ok := p.byVerb[payload.Verb]
	if !ok || len(handlers) == 0 {
		return feed.UnknownVerb(payload.Verb)
	}

	retract := feed.RetractPayload{
		ProducerID: payload.ProducerID,
		ConsumerID: payload.ConsumerID,
		ItemID:     payload.ItemID,
		Verb:       payload.Verb,
	}

	for _, h := range handlers {
		h := h
		if err := p.queue.Enqueue(func(ctx context.Context) error {
			if err := h.Retract(ctx, retract); err != nil {
				logging.Ctx(ctx).Error().Err(err).Str("feed", h.Name()).Msg("retract failed")
				return err
			}
			return nil
		}); err != nil {
			return feed.QueueClosed()
		}
	}
	return nil
}

// Subscribe looks up name and enqueues handler.Subscribe.
// UnknownFeed is returned synchronously if name is not registered.
func (p *Processor) Subscribe(ctx context.Context, name, consumerID, producerID string) error {
	h, ok := p.byName[name]
	if !ok {
		return feed.UnknownFeed(name)
	}
	return p.enqueueMembership(h, consumerID, producerID, h.Subscribe)
}

// Unsubscribe is symmetric with Subscribe.
func (p *Processor) Unsubscribe(ctx context.Context, name, consumerID, producerID string) error {
	h, ok := p.byName[name]
	if !ok {
		return feed.UnknownFeed(name)
	}
	return p.enqueueMembership(h, consumerID, producerID, h.Unsubscribe)
}

func (p *Processor) enqueueMembership(h feed.Handler, consumerID, producerID string, op func(ctx context.Context, consumerID, producerID string) error) error {
	if err := p.queue.Enqueue(func(ctx context.Context) error {
		if err := op(ctx, consumerID, producerID); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("feed", h.Name()).Msg("membership change failed")
			return err
		}
		return nil
	}); err != nil {
		return feed.QueueClosed()
	}
	return nil
}

// Consume looks up name and calls handler.Consume synchronously,
// bypassing the queue entirely, and propagates any error to the
// caller.
func (p *Processor) Consume(ctx context.Context, name, consumerID string, limit int, after, before *string) ([]feed.Item, error) {
	h, ok := p.byName[name]
	if !ok {
		return nil, feed.UnknownFeed(name)
	}
	return h.Consume(ctx, consumerID, limit, after, before)
}

// Preload replays every row of every registered feed's event store
// through its handler's Add path with save=false, repopulating caches
// without re-writing durable rows. Ordering across feeds is
// unspecified; within a feed rows replay in the store's insertion
// order. A failure on one row is logged and skipped so boot can
// complete (§4.4).
func (p *Processor) Preload(ctx context.Context) error {
	for name, h := range p.byName {
		if err := p.preloadOne(ctx, name, h); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("feed", name).Msg("preload failed for feed")
		}
	}
	return nil
}

func (p *Processor) preloadOne(ctx context.Context, name string, h feed.Handler) error {
	switch h.FeedKind() {
	case feed.KindFlat:
		return preloadFlat(ctx, name, h)
	case feed.KindActivity:
		return preloadActivity(ctx, name, h)
	default:
		return fmt.Errorf("eventprocessor: unknown feed kind for %q", name)
	}
}

// flatPreloader and activityPreloader are satisfied by FlatHandler and
// ActivityHandler respectively, giving Preload access to the
// underlying event store without widening the feed.Handler interface.
type flatPreloader interface {
	PreloadSource() feedstore.FlatEventStore
}

type activityPreloader interface {
	PreloadSource() feedstore.ActivityEventStore
}

func preloadFlat(ctx context.Context, name string, h feed.Handler) error {
	source, ok := h.(flatPreloader)
	if !ok {
		return fmt.Errorf("eventprocessor: handler for %q does not expose a flat preload source", name)
	}
	rows, err := source.PreloadSource().AllForPreload(ctx, name)
	if err != nil {
		return feed.StoreError(err)
	}
	for _, row := range rows {
		payload := feed.AddPayload{
			ProducerID: row.ProducerID,
			ItemID:     row.ItemID,
			Verb:       row.Verb,
			Timestamp:  row.Timestamp,
		}
		if err := h.Add(ctx, payload, false); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("feed", name).Str("item_id", row.ItemID).
				Msg("preload row failed, skipping")
		}
	}
	return nil
}

func preloadActivity(ctx context.Context, name string, h feed.Handler) error {
	source, ok := h.(activityPreloader)
	if !ok {
		return fmt.Errorf("eventprocessor: handler for %q does not expose an activity preload source", name)
	}
	rows, err := source.PreloadSource().AllForPreload(ctx, name)
	if err != nil {
		return feed.StoreError(err)
	}
	for _, row := range rows {
		payload := feed.AddPayload{
			ProducerID: row.ProducerID,
			ConsumerID: row.ConsumerID,
			ItemID:     row.ItemID,
			Verb:       row.Verb,
			Timestamp:  row.Timestamp,
		}
		if err := h.Add(ctx, payload, false); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("feed", name).Str("item_id", row.ItemID).
				Msg("preload row failed, skipping")
		}
	}
	return nil
}
