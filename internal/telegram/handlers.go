package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/urlchat-backend/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const helpText = `Commands:
/groups - list URL groups
/use <name> - switch the active group (resets the conversation)
/urls - list URLs of the active group
/add <url> - add a URL to the active group
/remove <url> - remove a URL from the active group
/suggest - suggested questions for the active group

Any other message is asked against the active group's URLs.`

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	ctx = ctxzap.ToContext(ctx, b.logger.With(
		zap.Int64("chat_id", msg.Chat.ID),
		zap.String("command", msg.Command()),
	))

	switch msg.Command() {
	case "start", "help":
		b.reply(msg.Chat.ID, helpText)
	case "groups":
		b.handleGroups(ctx, msg)
	case "use":
		b.handleUse(ctx, msg)
	case "urls":
		b.handleURLs(ctx, msg)
	case "add":
		b.handleAddURL(ctx, msg)
	case "remove":
		b.handleRemoveURL(ctx, msg)
	case "suggest":
		b.handleSuggest(ctx, msg)
	default:
		b.handleAsk(ctx, msg)
	}
}

func (b *Bot) handleGroups(ctx context.Context, msg *tgbotapi.Message) {
	groups, err := b.groupUC.ListGroups(ctx)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, "failed to list groups", err)
		return
	}

	var sb strings.Builder
	sb.WriteString("URL groups:\n")
	for _, g := range groups {
		marker := "  "
		if g.Active {
			marker = "* "
		}
		fmt.Fprintf(&sb, "%s%s (%d urls)\n", marker, g.Name, len(g.URLs))
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleUse(ctx context.Context, msg *tgbotapi.Message) {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		b.reply(msg.Chat.ID, "Usage: /use <group name>")
		return
	}

	groups, err := b.groupUC.ListGroups(ctx)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, "failed to list groups", err)
		return
	}

	for _, g := range groups {
		if strings.EqualFold(g.Name, name) {
			if _, err := b.groupUC.SwitchGroup(ctx, g.ID); err != nil {
				b.replyError(ctx, msg.Chat.ID, "failed to switch group", err)
				return
			}
			b.reply(msg.Chat.ID, fmt.Sprintf("Switched to %q. The conversation has been reset.", g.Name))
			return
		}
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("No group named %q. Use /groups to see them.", name))
}

func (b *Bot) handleURLs(ctx context.Context, msg *tgbotapi.Message) {
	active, err := b.groupUC.GetActive(ctx)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, "failed to get active group", err)
		return
	}

	if len(active.URLs) == 0 {
		b.reply(msg.Chat.ID, fmt.Sprintf("Group %q has no URLs yet. Add one with /add <url>.", active.Name))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "URLs in %q:\n", active.Name)
	for i, u := range active.URLs {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, u)
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleAddURL(ctx context.Context, msg *tgbotapi.Message) {
	rawURL := strings.TrimSpace(msg.CommandArguments())
	if rawURL == "" {
		b.reply(msg.Chat.ID, "Usage: /add <url>")
		return
	}

	active, err := b.groupUC.GetActive(ctx)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, "failed to get active group", err)
		return
	}

	updated, err := b.groupUC.AddURL(ctx, active.ID, rawURL)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, "failed to add url", err)
		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("Added. Group %q now has %d URLs.", updated.Name, len(updated.URLs)))
}

func (b *Bot) handleRemoveURL(ctx context.Context, msg *tgbotapi.Message) {
	rawURL := strings.TrimSpace(msg.CommandArguments())
	if rawURL == "" {
		b.reply(msg.Chat.ID, "Usage: /remove <url>")
		return
	}

	active, err := b.groupUC.GetActive(ctx)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, "failed to get active group", err)
		return
	}

	updated, err := b.groupUC.RemoveURL(ctx, active.ID, rawURL)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, "failed to remove url", err)
		return
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("Removed. Group %q now has %d URLs.", updated.Name, len(updated.URLs)))
}

func (b *Bot) handleSuggest(ctx context.Context, msg *tgbotapi.Message) {
	suggestions, err := b.chatUC.Suggest(ctx)
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, "failed to fetch suggestions", err)
		return
	}

	if len(suggestions) == 0 {
		b.reply(msg.Chat.ID, "No suggestions right now. Add some URLs to the active group first.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Try asking:\n")
	for _, s := range suggestions {
		fmt.Fprintf(&sb, "- %s\n", s)
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) handleAsk(ctx context.Context, msg *tgbotapi.Message) {
	typing := tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)
	if _, err := b.api.Request(typing); err != nil {
		ctxzap.Debug(ctx, "failed to send typing action", zap.Error(err))
	}

	answer, err := b.chatUC.Ask(ctx, &entity.AskRequest{Query: msg.Text})
	if err != nil {
		b.replyError(ctx, msg.Chat.ID, "failed to answer", err)
		return
	}

	text := answer.Text
	if len(answer.URLMetadata) > 0 {
		var sb strings.Builder
		sb.WriteString(text)
		sb.WriteString("\n\nSources:\n")
		for _, m := range answer.URLMetadata {
			fmt.Fprintf(&sb, "- %s\n", m.RetrievedURL)
		}
		text = sb.String()
	}

	b.reply(msg.Chat.ID, text)
}

func (b *Bot) replyError(ctx context.Context, chatID int64, message string, err error) {
	ctxzap.Error(ctx, message, zap.Error(err))
	b.reply(chatID, fmt.Sprintf("Sorry, %s: %v", message, err))
}
