package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
)

// app wires the conversation, repositories and provider together
// behind the Telegram handlers.
type app struct {
	log      zerolog.Logger
	resolver StationResolver
	source   TicketSource
	convs    *ConversationStore
	searches SearchRepository
	subs     SubscriptionRepository
	now      func() time.Time
}

// recovered converts an unexpected panic in a handler into a logged
// event plus a generic apology, never a dead process.
func (a *app) recovered(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		defer func() {
			if r := recover(); r != nil {
				a.log.Error().Interface("panic", r).Msg("handler panicked")
				if update != nil && update.Message != nil {
					a.send(ctx, b, update.Message.Chat.ID, msgInternalError)
				}
			}
		}()
		next(ctx, b, update)
	}
}

func (a *app) send(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if err := sendText(ctx, b, chatID, text); err != nil {
		a.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

// /start
func (a *app) startHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	name := "путешественник"
	if update.Message.From != nil && update.Message.From.FirstName != "" {
		name = update.Message.From.FirstName
	}
	a.send(ctx, b, update.Message.Chat.ID, fmt.Sprintf(msgGreeting, name))
}

// /help
func (a *app) helpHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	a.send(ctx, b, update.Message.Chat.ID, msgHelp)
}

// /search starts a fresh conversation, discarding any previous one.
func (a *app) searchHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	a.convs.Start(chatID)
	a.send(ctx, b, chatID, msgAskFrom)
}

// /cancel aborts the conversation from any state.
func (a *app) cancelHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	a.convs.Delete(chatID)
	a.send(ctx, b, chatID, msgActionCancelled)
}

// /subscriptions
func (a *app) subscriptionsHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	recs := a.subs.ListByChat(chatID)
	if len(recs) == 0 {
		a.send(ctx, b, chatID, msgNoSubscriptions)
		return
	}
	a.send(ctx, b, chatID, formatSubscriptions(recs))
}

// messageHandler feeds free text into the active conversation.
func (a *app) messageHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID
	text := update.Message.Text

	conv, ok := a.convs.Get(chatID)
	if !ok || strings.HasPrefix(text, "/") {
		a.send(ctx, b, chatID, msgUseSearch)
		return
	}

	reply := conv.handleText(ctx, a.resolver, a.now(), text)
	a.convs.Put(chatID, conv)

	if reply.showConfirm {
		if err := sendConfirmKeyboard(ctx, b, chatID, reply.text, a.confirmSelect(chatID)); err != nil {
			a.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
		}
		return
	}
	a.send(ctx, b, chatID, reply.text)
}

// recoveredSelect guards an inline-keyboard callback the way
// recovered guards a handler: the keyboard dispatches callbacks
// outside the wrapped handler chain, so they need their own net.
func (a *app) recoveredSelect(chatID int64, next func(ctx context.Context, b *bot.Bot, mes models.MaybeInaccessibleMessage, data []byte)) func(ctx context.Context, b *bot.Bot, mes models.MaybeInaccessibleMessage, data []byte) {
	return func(ctx context.Context, b *bot.Bot, mes models.MaybeInaccessibleMessage, data []byte) {
		defer func() {
			if r := recover(); r != nil {
				a.log.Error().Interface("panic", r).Int64("chat_id", chatID).Msg("callback panicked")
				a.send(ctx, b, chatID, msgInternalError)
			}
		}()
		next(ctx, b, mes, data)
	}
}

// confirmSelect handles the confirm/cancel buttons for one chat.
func (a *app) confirmSelect(chatID int64) func(ctx context.Context, b *bot.Bot, mes models.MaybeInaccessibleMessage, data []byte) {
	return a.recoveredSelect(chatID, func(ctx context.Context, b *bot.Bot, mes models.MaybeInaccessibleMessage, data []byte) {
		conv, ok := a.convs.Get(chatID)
		if !ok || conv.State != stateAwaitingConfirm {
			a.send(ctx, b, chatID, msgSearchExpired)
			return
		}

		// terminal either way
		a.convs.Delete(chatID)

		if string(data) != actionConfirmSearch {
			a.send(ctx, b, chatID, msgSearchCancelled)
			return
		}

		reply, rec, err := completeSearch(ctx, a.source, a.searches, chatID, conv, a.now())
		if err != nil {
			a.log.Warn().Err(err).
				Int64("chat_id", chatID).
				Str("from", conv.From.Name).
				Str("to", conv.To.Name).
				Msg("search failed")
		}
		a.send(ctx, b, chatID, reply)

		if rec != nil {
			if err := sendSubscribeOffer(ctx, b, chatID, rec.ID, a.subscribeSelect(chatID)); err != nil {
				a.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
			}
		}
	})
}

// subscribeSelect promotes the referenced search into the chat's
// subscription list. An unknown id is a polite no-op.
func (a *app) subscribeSelect(chatID int64) func(ctx context.Context, b *bot.Bot, mes models.MaybeInaccessibleMessage, data []byte) {
	return a.recoveredSelect(chatID, func(ctx context.Context, b *bot.Bot, mes models.MaybeInaccessibleMessage, data []byte) {
		rec, ok := a.searches.Get(chatID, string(data))
		if !ok {
			a.send(ctx, b, chatID, msgSearchExpired)
			return
		}
		a.subs.Add(chatID, rec)
		a.log.Info().
			Int64("chat_id", chatID).
			Str("from", rec.From.Name).
			Str("to", rec.To.Name).
			Str("date", rec.Date.Format(tripDateLayout)).
			Msg("subscription added")
		a.send(ctx, b, chatID, msgSubscribed)
	})
}
