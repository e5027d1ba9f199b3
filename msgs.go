package main

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/ui/keyboard/inline"
)

const (
	msgGreeting = "Привет, %s!\nЯ бот для отслеживания железнодорожных билетов РЖД.\nИспользуй /search для поиска билетов или /help для справки."

	msgHelp = "Доступные команды:\n" +
		"/start - начать работу с ботом\n" +
		"/search - поиск билетов\n" +
		"/subscriptions - просмотр активных подписок\n" +
		"/cancel - отменить текущий поиск\n" +
		"/help - эта справка\n\n" +
		"Бот может уведомлять вас о появлении билетов на выбранные направления."

	msgAskFrom         = "Введите станцию отправления (например: Москва):"
	msgAskTo           = "Теперь введите станцию назначения:"
	msgAskDate         = "Теперь введите дату поездки в формате ДД.ММ.ГГГГ:"
	msgStationChosen   = "📍 Выбрана станция: %s\n"
	msgStationNotFound = "🚂 Станции не найдены. Попробуйте еще раз:"
	msgBadDate         = "Некорректная дата. Введите дату в формате ДД.ММ.ГГГГ:"

	msgSearchCancelled = "❌ Поиск отменен"
	msgActionCancelled = "Действие отменено."
	msgSearchFailed    = "⚠️ Произошла ошибка при поиске билетов. Попробуйте позже."
	msgNoTickets       = "😞 Билеты не найдены."

	msgSubscribeOffer  = "Хотите получать уведомления о новых билетах?"
	msgSubscribed      = "✅ Вы подписались на обновления по этому маршруту!"
	msgSearchExpired   = "Этот поиск уже недоступен. Запустите /search заново."
	msgNoSubscriptions = "У вас нет активных подписок."

	msgUseSearch     = "Используй /search для поиска билетов или /help для справки."
	msgInternalError = "Произошла ошибка. Пожалуйста, попробуйте позже или обратитесь в поддержку."
)

const (
	btnConfirm   = "Подтвердить"
	btnCancel    = "Отмена"
	btnSubscribe = "🔔 Подписаться на обновления"

	actionConfirmSearch = "confirm_search"
	actionCancelSearch  = "cancel_search"
)

func sendText(ctx context.Context, b *bot.Bot, chatID int64, text string) error {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

// sendConfirmKeyboard asks the user to confirm or cancel the search.
// Both buttons deliver to the same onSelect with their action as data.
func sendConfirmKeyboard(ctx context.Context, b *bot.Bot, chatID int64, text string, onSelect inline.OnSelect) error {
	kb := inline.New(b).
		Row().
		Button(btnConfirm, []byte(actionConfirmSearch), onSelect).
		Button(btnCancel, []byte(actionCancelSearch), onSelect)

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: kb,
	})
	return err
}

// sendSubscribeOffer attaches a subscribe button carrying the search
// record id. The keyboard stays after a click: pressing it again is a
// deliberate second, independent subscription.
func sendSubscribeOffer(ctx context.Context, b *bot.Bot, chatID int64, recordID string, onSelect inline.OnSelect) error {
	kb := inline.New(b, inline.NoDeleteAfterClick()).
		Row().
		Button(btnSubscribe, []byte(recordID), onSelect)

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        msgSubscribeOffer,
		ReplyMarkup: kb,
	})
	return err
}
