// Package telegram sends watch digests via the Telegram Bot API.
// It formats ranked bet lines into MarkdownV2 messages and handles
// delivery with retry logic.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/propboard/internal/keys"
	"github.com/rewired-gh/propboard/internal/monitor"
)

// sender is the part of the bot API the client uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// Digest describes the cycle a batch of picks comes from.
type Digest struct {
	FetchedAt time.Time
	Interval  time.Duration // poll interval, 0 for one-shot runs
}

// Send sends a digest of the ranked picks.
func (c *Client) Send(picks []monitor.Pick, d Digest) error {
	return c.send(formatDigest(picks, d))
}

// SendError reports a failed watch cycle.
func (c *Client) SendError(cycleErr error) error {
	msg := "⚠️ *Watch cycle failed*\n\n" + escapeMarkdownV2(cycleErr.Error())
	return c.send(msg)
}

// SendRecovery reports that cycles succeed again after failures.
func (c *Client) SendRecovery(failedCycles int) error {
	msg := fmt.Sprintf("✅ *Watch recovered* after %d failed %s", failedCycles, plural(failedCycles, "cycle"))
	return c.send(msg)
}

func (c *Client) send(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatDigest formats picks into a Telegram message
func formatDigest(picks []monitor.Pick, d Digest) string {
	var sb strings.Builder
	window := 0
	if len(picks) > 0 {
		window = picks[0].Summary.Window
	}
	sb.WriteString(fmt.Sprintf("🏀 *Top Value Lines* \\(vL%d\\)\n\n", window))
	if !d.FetchedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("📅 Fetched: %s\n\n", escapeMarkdownV2(d.FetchedAt.Format("2006-01-02 15:04:05"))))
	}

	for i, p := range picks {
		b := p.Line
		team := b.TeamKey
		if team == "" {
			team = b.Player.Team
		}
		name := escapeMarkdownV2(b.Player.Name)
		if team != "" {
			name += " \\(" + escapeMarkdownV2(keys.TeamDisplayName(team)) + "\\)"
		}
		sb.WriteString(fmt.Sprintf("%d\\. *%s*\n", i+1, name))

		wager := fmt.Sprintf("%s %s %s @ %.2f", keys.ShortPropLabel(b.Prop.Key), b.Side, formatLine(b.Line), b.Odds)
		if b.Bookmaker != "" {
			wager += " · " + b.Bookmaker
		}
		sb.WriteString("   " + escapeMarkdownV2(wager) + "\n")

		emoji := "📈"
		if p.Summary.Tone != "pos" {
			emoji = "➖"
		}
		sb.WriteString(fmt.Sprintf("   %s Edge: *%s* · Hit: %s · EV: %s\n",
			emoji,
			escapeMarkdownV2(fmt.Sprintf("%+.1f", p.Summary.Edge)),
			escapeMarkdownV2(fmt.Sprintf("%.0f%%", p.Summary.HitRate)),
			escapeMarkdownV2(fmt.Sprintf("%+.1f%%", p.Summary.ExpectedValue))))

		if mv := p.Movement; mv != nil {
			arrow := "⬆️"
			if mv.Direction() == "down" {
				arrow = "⬇️"
			}
			sb.WriteString(fmt.Sprintf("   %s Odds: %s → %s\n", arrow,
				escapeMarkdownV2(fmt.Sprintf("%.2f", mv.OldOdds)),
				escapeMarkdownV2(fmt.Sprintf("%.2f", mv.NewOdds))))
		}
		sb.WriteString("\n")
	}

	if d.Interval > 0 {
		sb.WriteString(fmt.Sprintf("⏱ Next check in %s\n", formatDuration(d.Interval)))
	}
	return sb.String()
}

func formatLine(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		switch r {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if hours := int(d.Hours()); hours >= 1 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}
