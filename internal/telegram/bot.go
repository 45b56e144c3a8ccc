package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/futig/urlchat-backend/internal/config"
	chatuc "github.com/futig/urlchat-backend/internal/usecase/chat"
	groupuc "github.com/futig/urlchat-backend/internal/usecase/group"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Bot is a thin Telegram frontend over the same use cases the HTTP API
// exposes: switch groups, manage URLs and ask questions in plain messages.
type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.TelegramConfig
	groupUC  *groupuc.GroupUsecase
	chatUC   *chatuc.ChatUsecase
	logger   *zap.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewBot creates and authorizes the Telegram bot.
func NewBot(
	cfg *config.TelegramConfig,
	groupUC *groupuc.GroupUsecase,
	chatUC *chatuc.ChatUsecase,
	logger *zap.Logger,
) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}
	api.Debug = cfg.Debug

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	return &Bot{
		api:      api,
		cfg:      cfg,
		groupUC:  groupUC,
		chatUC:   chatUC,
		logger:   logger,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins polling for updates.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	updates := b.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, b.logger)

	b.wg.Add(1)
	go b.processUpdates(ctx, updates)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	close(b.stopChan)
	b.api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		b.logger.Warn("timed out waiting for update processing to finish")
	}

	b.logger.Info("telegram bot stopped")
	return nil
}

func (b *Bot) processUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer b.wg.Done()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send telegram message", zap.Error(err))
	}
}
