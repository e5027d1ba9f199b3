package main

import (
	"sync"
	"time"
)

// SearchRepository keeps completed searches so a later subscribe
// action can reference them by id.
type SearchRepository interface {
	Save(chatID int64, rec *SearchRecord)
	Get(chatID int64, id string) (SearchRecord, bool)
}

// Subscription is one tracked (chat, record) pair swept by the
// tracker.
type Subscription struct {
	ChatID int64
	Record *SearchRecord
}

// SubscriptionRepository owns the per-chat subscription lists.
// Add appends unconditionally: subscribing twice to the same
// route/date is two independent tracked entries.
type SubscriptionRepository interface {
	Add(chatID int64, rec SearchRecord)
	ListByChat(chatID int64) []SearchRecord
	All() []Subscription
	UpdateResult(rec *SearchRecord, tickets []TicketOffer, checkedAt time.Time)
}

type memorySearchRepository struct {
	mu     sync.Mutex
	byChat map[int64]map[string]SearchRecord
}

func NewMemorySearchRepository() *memorySearchRepository {
	return &memorySearchRepository{byChat: make(map[int64]map[string]SearchRecord)}
}

func (r *memorySearchRepository) Save(chatID int64, rec *SearchRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byChat[chatID] == nil {
		r.byChat[chatID] = make(map[string]SearchRecord)
	}
	r.byChat[chatID][rec.ID] = *rec
}

func (r *memorySearchRepository) Get(chatID int64, id string) (SearchRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byChat[chatID][id]
	return rec, ok
}

type memorySubscriptionRepository struct {
	mu     sync.Mutex
	byChat map[int64][]*SearchRecord
}

func NewMemorySubscriptionRepository() *memorySubscriptionRepository {
	return &memorySubscriptionRepository{byChat: make(map[int64][]*SearchRecord)}
}

// Add stores its own copy of the record: duplicate subscriptions must
// not share a tickets baseline.
func (r *memorySubscriptionRepository) Add(chatID int64, rec SearchRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byChat[chatID] = append(r.byChat[chatID], &rec)
}

func (r *memorySubscriptionRepository) ListByChat(chatID int64) []SearchRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs := make([]SearchRecord, 0, len(r.byChat[chatID]))
	for _, rec := range r.byChat[chatID] {
		recs = append(recs, *rec)
	}
	return recs
}

// All snapshots every tracked pair. A subscription added after the
// snapshot is picked up on the next sweep.
func (r *memorySubscriptionRepository) All() []Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	var subs []Subscription
	for chatID, recs := range r.byChat {
		for _, rec := range recs {
			subs = append(subs, Subscription{ChatID: chatID, Record: rec})
		}
	}
	return subs
}

func (r *memorySubscriptionRepository) UpdateResult(rec *SearchRecord, tickets []TicketOffer, checkedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.Tickets = tickets
	rec.LastCheckedAt = checkedAt
}
