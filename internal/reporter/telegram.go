package reporter

import (
	"context"
	"fmt"
	"strings"

	"go-goodhr-automation/internal/engine"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of tgbotapi.BotAPI we use.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramReporter pushes greetings and session results to a chat.
type TelegramReporter struct {
	api    sender
	chatID int64
}

func NewTelegramReporter(token string, chatID int64) (*TelegramReporter, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	//turn this on in case of debug
	//api.Debug = true

	return &TelegramReporter{api: api, chatID: chatID}, nil
}

var markdownReplacer = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}

func (t *TelegramReporter) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	_, err := t.api.Send(msg)
	return err
}

func (t *TelegramReporter) ReportMatch(ctx context.Context, out engine.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.send(formatMatch(out))
}

func (t *TelegramReporter) ReportStop(ctx context.Context, sum engine.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.send(formatStop(sum))
}

func (t *TelegramReporter) ReportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return t.send("❌ *Error*: " + escapeMarkdown(err.Error()))
}

func formatMatch(out engine.Outcome) string {
	rec := out.Candidate
	var b strings.Builder
	fmt.Fprintf(&b, "👤 *%s*\n", escapeMarkdown(rec.Name))

	var facts []string
	if rec.Age != nil {
		facts = append(facts, fmt.Sprintf("%d岁", *rec.Age))
	}
	for _, f := range []string{rec.Education, rec.University} {
		if f != "" {
			facts = append(facts, f)
		}
	}
	if len(facts) > 0 {
		fmt.Fprintf(&b, "🎓 %s\n", escapeMarkdown(strings.Join(facts, " · ")))
	}

	switch {
	case out.Screened:
		fmt.Fprintf(&b, "🤖 AI screening said yes \\(%d tokens\\)\n", out.Tokens)
	case out.Verdict.NoRules:
		b.WriteString("🔎 no keyword rules, everyone matches\n")
	case len(out.Verdict.Hits) > 0:
		fmt.Fprintf(&b, "🔎 %s\n", escapeMarkdown(strings.Join(out.Verdict.Hits, ", ")))
	}

	if out.Clicked {
		fmt.Fprintf(&b, "🖱️ opened for %s\n", escapeMarkdown(out.Dwell.String()))
	}
	return b.String()
}

func formatStop(sum engine.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏁 *Session stopped*: %s\n", escapeMarkdown(string(sum.Reason)))
	if sum.Position != "" {
		fmt.Fprintf(&b, "📌 %s\n", escapeMarkdown(sum.Position))
	}
	fmt.Fprintf(&b, "📊 scanned %d, matched %d, greeted %d, clicked %d\n",
		sum.Scanned, sum.Matched, sum.Greeted, sum.Clicked)
	if sum.Tier != "" {
		fmt.Fprintf(&b, "🎫 %s, %d left\n", escapeMarkdown(string(sum.Tier)), sum.Remaining)
	}
	return b.String()
}
