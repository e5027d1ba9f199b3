package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/go-telegram/bot"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	api := NewRzdAPI(cfg.RzdBaseURL, cfg.HTTPTimeout, logger)

	a := &app{
		log:      logger,
		resolver: api,
		source:   api,
		convs:    NewConversationStore(),
		searches: NewMemorySearchRepository(),
		subs:     NewMemorySubscriptionRepository(),
		now:      time.Now,
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(a.recovered(a.messageHandler)),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not create bot")
	}

	b.RegisterHandler(bot.HandlerTypeMessageText, "start", bot.MatchTypeCommand, a.recovered(a.startHandler))
	b.RegisterHandler(bot.HandlerTypeMessageText, "help", bot.MatchTypeCommand, a.recovered(a.helpHandler))
	b.RegisterHandler(bot.HandlerTypeMessageText, "search", bot.MatchTypeCommand, a.recovered(a.searchHandler))
	b.RegisterHandler(bot.HandlerTypeMessageText, "subscriptions", bot.MatchTypeCommand, a.recovered(a.subscriptionsHandler))
	b.RegisterHandler(bot.HandlerTypeMessageText, "cancel", bot.MatchTypeCommand, a.recovered(a.cancelHandler))

	tracker := NewTracker(api, a.subs, &telegramMessenger{bot: b}, logger, cfg.HTTPTimeout, time.Now)
	go tracker.Run(ctx, cfg.CheckInterval, cfg.CheckInitialDelay)

	logger.Info().
		Dur("check_interval", cfg.CheckInterval).
		Msg("bot started")

	b.Start(ctx)
}

func newLogger(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var w io.Writer = os.Stdout
	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// telegramMessenger adapts the bot to the tracker's Messenger.
type telegramMessenger struct {
	bot *bot.Bot
}

func (m *telegramMessenger) Send(ctx context.Context, chatID int64, text string) error {
	return sendText(ctx, m.bot, chatID, text)
}
