package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sentRecorder collects the texts the bot tried to deliver.
type sentRecorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *sentRecorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, s)
}

func (r *sentRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func (r *sentRecorder) contains(want string) bool {
	for _, s := range r.all() {
		if strings.Contains(s, want) {
			return true
		}
	}
	return false
}

// newTestBot builds a bot against a local Telegram API stub so the
// real send path runs without network.
func newTestBot(t *testing.T) (*bot.Bot, *sentRecorder) {
	t.Helper()
	rec := &sentRecorder{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			body, _ := io.ReadAll(r.Body)
			var params struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(body, &params); err == nil && params.Text != "" {
				rec.add(params.Text)
			} else {
				r.Body = io.NopCloser(bytes.NewReader(body))
				if strings.Contains(r.Header.Get("Content-Type"), "multipart") {
					_ = r.ParseMultipartForm(1 << 20)
				} else {
					_ = r.ParseForm()
				}
				if v := r.FormValue("text"); v != "" {
					rec.add(v)
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":42},"date":1}}`))
	}))
	t.Cleanup(srv.Close)

	b, err := bot.New("123:test", bot.WithSkipGetMe(), bot.WithServerURL(srv.URL))
	require.NoError(t, err)
	return b, rec
}

func newTestApp() *app {
	return &app{
		log:      zerolog.Nop(),
		resolver: testResolver(),
		source:   &fakeSource{},
		convs:    NewConversationStore(),
		searches: NewMemorySearchRepository(),
		subs:     NewMemorySubscriptionRepository(),
		now:      func() time.Time { return testToday },
	}
}

func TestRecoveredHandlerContainsPanic(t *testing.T) {
	a := newTestApp()
	b, rec := newTestBot(t)

	wrapped := a.recovered(func(ctx context.Context, b *bot.Bot, update *models.Update) {
		panic("unexpected")
	})
	update := &models.Update{Message: &models.Message{Chat: models.Chat{ID: 42}}}

	require.NotPanics(t, func() {
		wrapped(context.Background(), b, update)
	})
	assert.True(t, rec.contains(msgInternalError))
}

// An inline-keyboard callback runs outside the wrapped handler chain,
// so a panic inside it must be contained the same way.
func TestRecoveredSelectContainsPanic(t *testing.T) {
	a := newTestApp()
	b, rec := newTestBot(t)

	cb := a.recoveredSelect(42, func(ctx context.Context, b *bot.Bot, mes models.MaybeInaccessibleMessage, data []byte) {
		panic("unexpected")
	})

	require.NotPanics(t, func() {
		cb(context.Background(), b, models.MaybeInaccessibleMessage{}, nil)
	})
	assert.True(t, rec.contains(msgInternalError))
}

func TestConfirmSelectCancelEndsConversation(t *testing.T) {
	a := newTestApp()
	b, rec := newTestBot(t)
	a.convs.Put(42, confirmedConversation())

	a.confirmSelect(42)(context.Background(), b, models.MaybeInaccessibleMessage{}, []byte(actionCancelSearch))

	_, ok := a.convs.Get(42)
	assert.False(t, ok)
	assert.True(t, rec.contains(msgSearchCancelled))
}

func TestConfirmSelectRunsSearchAndOffersSubscribe(t *testing.T) {
	a := newTestApp()
	a.source = &fakeSource{tickets: offers("001A", "002B")}
	b, rec := newTestBot(t)
	a.convs.Put(42, confirmedConversation())

	a.confirmSelect(42)(context.Background(), b, models.MaybeInaccessibleMessage{}, []byte(actionConfirmSearch))

	_, ok := a.convs.Get(42)
	assert.False(t, ok)
	assert.True(t, rec.contains("001A"))
	assert.True(t, rec.contains("002B"))
	assert.True(t, rec.contains(msgSubscribeOffer))
}

func TestConfirmSelectWithoutConversationIsNoOp(t *testing.T) {
	a := newTestApp()
	b, rec := newTestBot(t)

	a.confirmSelect(42)(context.Background(), b, models.MaybeInaccessibleMessage{}, []byte(actionConfirmSearch))

	assert.True(t, rec.contains(msgSearchExpired))
	assert.Empty(t, a.subs.ListByChat(42))
}

func TestSubscribeSelectAddsSubscription(t *testing.T) {
	a := newTestApp()
	b, rec := newTestBot(t)
	a.searches.Save(42, &SearchRecord{ID: "rec-1", From: Station{Name: "МОСКВА"}, Tickets: offers("001A")})

	a.subscribeSelect(42)(context.Background(), b, models.MaybeInaccessibleMessage{}, []byte("rec-1"))

	assert.Len(t, a.subs.ListByChat(42), 1)
	assert.True(t, rec.contains(msgSubscribed))
}

func TestSubscribeSelectUnknownRecordIsNoOp(t *testing.T) {
	a := newTestApp()
	b, rec := newTestBot(t)

	a.subscribeSelect(42)(context.Background(), b, models.MaybeInaccessibleMessage{}, []byte("missing"))

	assert.Empty(t, a.subs.ListByChat(42))
	assert.True(t, rec.contains(msgSearchExpired))
}
