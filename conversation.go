package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StationResolver returns ranked station candidates for free text.
// Provider errors surface as an empty list.
type StationResolver interface {
	StationByName(ctx context.Context, name string) []Station
}

// TicketSource returns current offers for a route and date. An error
// is a fetch failure, distinct from an empty result.
type TicketSource interface {
	GetTickets(ctx context.Context, fromCode, toCode string, date time.Time) ([]TicketOffer, error)
}

type convState int

const (
	stateAwaitingFrom convState = iota
	stateAwaitingTo
	stateAwaitingDate
	stateAwaitingConfirm
)

// Conversation is one chat's in-progress /search dialog. Fields fill
// in step by step; only confirmation produces a SearchRecord.
type Conversation struct {
	State convState
	From  Station
	To    Station
	Date  time.Time
}

// stepReply is what the dialog wants said back to the user after
// consuming one text input.
type stepReply struct {
	text        string
	showConfirm bool // attach the confirm/cancel keyboard
}

// handleText advances the conversation by one free-text input.
// Invalid input re-prompts and leaves the state where it was.
func (c *Conversation) handleText(ctx context.Context, resolver StationResolver, today time.Time, input string) stepReply {
	switch c.State {
	case stateAwaitingFrom:
		stations := resolver.StationByName(ctx, input)
		if len(stations) == 0 {
			return stepReply{text: msgStationNotFound}
		}
		c.From = stations[0]
		c.State = stateAwaitingTo
		return stepReply{text: fmt.Sprintf(msgStationChosen, c.From.Name) + msgAskTo}

	case stateAwaitingTo:
		stations := resolver.StationByName(ctx, input)
		if len(stations) == 0 {
			return stepReply{text: msgStationNotFound}
		}
		c.To = stations[0]
		c.State = stateAwaitingDate
		return stepReply{text: fmt.Sprintf(msgStationChosen, c.To.Name) + msgAskDate}

	case stateAwaitingDate:
		date, ok := parseTripDate(input, today)
		if !ok {
			return stepReply{text: msgBadDate}
		}
		c.Date = date
		c.State = stateAwaitingConfirm
		return stepReply{text: formatSummary(*c), showConfirm: true}

	case stateAwaitingConfirm:
		// only the buttons move the dialog forward from here
		return stepReply{text: formatSummary(*c), showConfirm: true}
	}

	return stepReply{text: msgUseSearch}
}

// completeSearch runs the confirmed search. On success the result is
// saved under a fresh id so a later subscribe action can reference it.
// rec is nil when the search failed or found nothing; the returned
// text is always what the user should see.
func completeSearch(ctx context.Context, source TicketSource, searches SearchRepository, chatID int64, conv Conversation, now time.Time) (string, *SearchRecord, error) {
	tickets, err := source.GetTickets(ctx, conv.From.Code, conv.To.Code, conv.Date)
	if err != nil {
		return msgSearchFailed, nil, err
	}
	if len(tickets) == 0 {
		return msgNoTickets, nil, nil
	}

	rec := &SearchRecord{
		ID:            uuid.NewString(),
		From:          conv.From,
		To:            conv.To,
		Date:          conv.Date,
		Tickets:       tickets,
		LastCheckedAt: now.UTC(),
	}
	searches.Save(chatID, rec)

	return formatSearchResults(tickets), rec, nil
}

// ConversationStore keeps the active conversation per chat. Chats are
// independent; a missing entry means no search is in progress.
type ConversationStore struct {
	mu    sync.Mutex
	convs map[int64]Conversation
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{convs: make(map[int64]Conversation)}
}

// Start begins a fresh conversation, discarding any previous one.
func (s *ConversationStore) Start(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[chatID] = Conversation{State: stateAwaitingFrom}
}

func (s *ConversationStore) Get(chatID int64) (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[chatID]
	return c, ok
}

func (s *ConversationStore) Put(chatID int64, c Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[chatID] = c
}

func (s *ConversationStore) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, chatID)
}
