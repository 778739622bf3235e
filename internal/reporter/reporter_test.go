package reporter

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-goodhr-automation/internal/engine"
	"go-goodhr-automation/internal/filter"
	"go-goodhr-automation/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `3\-5 years \(Go\)\.`, escapeMarkdown("3-5 years (Go)."))
	assert.Equal(t, "张三", escapeMarkdown("张三"))
}

func TestTelegramReporter_ReportMatch(t *testing.T) {
	fs := &fakeSender{}
	r := &TelegramReporter{api: fs, chatID: 42}

	out := engine.Outcome{
		Candidate: models.CandidateRecord{Name: "张三", Age: models.IntPtr(28), Education: "本科", University: "清华大学"},
		Verdict:   filter.Verdict{Matched: true, Hits: []string{"本科", "c++"}},
		Allowed:   true,
		Clicked:   true,
		Dwell:     4 * time.Second,
	}
	require.NoError(t, r.ReportMatch(context.Background(), out))
	require.Len(t, fs.sent, 1)

	msg := fs.sent[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)
	assert.Contains(t, msg.Text, "*张三*")
	assert.Contains(t, msg.Text, "28岁 · 本科 · 清华大学")
	assert.Contains(t, msg.Text, `c\+\+`)
	assert.Contains(t, msg.Text, "opened for 4s")
}

func TestTelegramReporter_ReportScreenedMatch(t *testing.T) {
	fs := &fakeSender{}
	r := &TelegramReporter{api: fs, chatID: 42}

	out := engine.Outcome{
		Candidate: models.CandidateRecord{Name: "李四"},
		Verdict:   filter.Verdict{Matched: true},
		Screened:  true,
		Tokens:    312,
		Allowed:   true,
	}
	require.NoError(t, r.ReportMatch(context.Background(), out))
	require.Len(t, fs.sent, 1)
	assert.Contains(t, fs.sent[0].Text, `AI screening said yes \(312 tokens\)`)
	assert.NotContains(t, fs.sent[0].Text, "everyone matches")
}

func TestTelegramReporter_ReportStop(t *testing.T) {
	fs := &fakeSender{}
	r := &TelegramReporter{api: fs, chatID: 1}

	sum := engine.Summary{Reason: engine.StopFreeExhausted, Position: "销售", Tier: models.TierFree, Scanned: 40, Matched: 3, Greeted: 3}
	require.NoError(t, r.ReportStop(context.Background(), sum))
	require.Len(t, fs.sent, 1)
	assert.Contains(t, fs.sent[0].Text, "free quota used up today")
	assert.Contains(t, fs.sent[0].Text, "scanned 40, matched 3, greeted 3, clicked 0")
	assert.Contains(t, fs.sent[0].Text, "free, 0 left")
}

func TestTelegramReporter_SendError(t *testing.T) {
	fs := &fakeSender{err: errors.New("429 too many requests")}
	r := &TelegramReporter{api: fs, chatID: 1}
	assert.Error(t, r.ReportError(context.Background(), errors.New("boom")))
}

type countingReporter struct {
	matches, stops, errs int
	fail                 error
}

func (c *countingReporter) ReportMatch(context.Context, engine.Outcome) error {
	c.matches++
	return c.fail
}

func (c *countingReporter) ReportStop(context.Context, engine.Summary) error {
	c.stops++
	return c.fail
}

func (c *countingReporter) ReportError(context.Context, error) error {
	c.errs++
	return c.fail
}

func TestMulti(t *testing.T) {
	ok := &countingReporter{}
	broken := &countingReporter{fail: errors.New("offline")}
	m := Multi{LogReporter{}, broken, ok}

	err := m.ReportMatch(context.Background(), engine.Outcome{})
	assert.ErrorContains(t, err, "offline")
	assert.Equal(t, 1, ok.matches, "a failing reporter does not block the others")

	assert.Error(t, m.ReportStop(context.Background(), engine.Summary{}))
	assert.Error(t, m.ReportError(context.Background(), errors.New("x")))
	assert.Equal(t, 1, ok.stops)
	assert.Equal(t, 1, ok.errs)

	assert.NoError(t, Multi{LogReporter{}, ok}.ReportMatch(context.Background(), engine.Outcome{}))
}
