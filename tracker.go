package main

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Messenger pushes a text message to a chat.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Tracker sweeps all active subscriptions on a fixed interval,
// refetching each route and notifying the owner about trains that
// were not present at the previous check.
type Tracker struct {
	source       TicketSource
	subs         SubscriptionRepository
	messenger    Messenger
	log          zerolog.Logger
	fetchTimeout time.Duration
	now          func() time.Time
}

func NewTracker(source TicketSource, subs SubscriptionRepository, messenger Messenger, log zerolog.Logger, fetchTimeout time.Duration, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		source:       source,
		subs:         subs,
		messenger:    messenger,
		log:          log,
		fetchTimeout: fetchTimeout,
		now:          now,
	}
}

// Run drives the periodic sweep until ctx is cancelled. The first
// sweep happens after initialDelay, then every interval.
func (t *Tracker) Run(ctx context.Context, interval, initialDelay time.Duration) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(initialDelay):
	}
	t.RefreshAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.RefreshAll(ctx)
		}
	}
}

// RefreshAll checks every tracked subscription once. Pairs are
// independent: a slow, failing or panicking check cannot stall or
// fail the others.
func (t *Tracker) RefreshAll(ctx context.Context) {
	subs := t.subs.All()
	if len(subs) == 0 {
		return
	}
	t.log.Debug().Int("subscriptions", len(subs)).Msg("refresh sweep started")

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub Subscription) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					t.log.Error().Interface("panic", r).Int64("chat_id", sub.ChatID).Msg("subscription check panicked")
				}
			}()
			t.refreshOne(ctx, sub)
		}(sub)
	}
	wg.Wait()
}

func (t *Tracker) refreshOne(ctx context.Context, sub Subscription) {
	rec := sub.Record

	// a subscription past its date is inert but stays in the list
	if rec.Date.Before(startOfDay(t.now())) {
		return
	}

	fctx := ctx
	if t.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, t.fetchTimeout)
		defer cancel()
	}

	tickets, err := t.source.GetTickets(fctx, rec.From.Code, rec.To.Code, rec.Date)
	if err != nil {
		// stale-but-valid: keep the stored tickets and check time
		t.log.Warn().Err(err).
			Int64("chat_id", sub.ChatID).
			Str("from", rec.From.Name).
			Str("to", rec.To.Name).
			Msg("ticket check failed")
		return
	}

	if fresh := findNewOffers(rec.Tickets, tickets); len(fresh) > 0 {
		if err := t.messenger.Send(ctx, sub.ChatID, formatNewOffers(fresh)); err != nil {
			t.log.Warn().Err(err).Int64("chat_id", sub.ChatID).Msg("notification failed")
		}
	}

	// replace unconditionally, whether or not anything new was found
	// and whether or not the notification went through
	t.subs.UpdateResult(rec, tickets, t.now().UTC())
}
