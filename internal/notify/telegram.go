// Package notify delivers session results and access codes to the operator
// through a Telegram-style bot API. Everything here is best effort: sends
// run under a bounded timeout, failures are logged by the callers and never
// surface to the candidate.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepstem/ieltsmock-backend/internal/session"
)

const sendTimeout = 5 * time.Second

// Notifier posts messages to the operator chat.
type Notifier struct {
	httpc   *http.Client
	apiURL  string
	token   string
	chatID  int64
	log     zerolog.Logger
	enabled bool
}

// New creates a Notifier. An empty token disables sending: every call
// becomes a logged no-op so local development works without a bot.
func New(apiURL, token string, chatID int64, log zerolog.Logger) *Notifier {
	return &Notifier{
		httpc:   &http.Client{Timeout: sendTimeout},
		apiURL:  apiURL,
		token:   token,
		chatID:  chatID,
		log:     log.With().Str("component", "notifier").Logger(),
		enabled: token != "",
	}
}

// ReportResult sends the candidate's score to the operator chat. Satisfies
// session.Reporter.
func (n *Notifier) ReportResult(ctx context.Context, report session.Report) error {
	text := fmt.Sprintf(
		"Result: %s\n%s %s (%s)\nCorrect: %d\nBand: %.1f",
		report.SectionID,
		report.Identity.FirstName, report.Identity.LastName, report.Identity.Phone,
		report.Result.Correct, report.Result.Band,
	)
	if report.Expired {
		text += "\n(time expired)"
	}
	return n.sendMessage(ctx, text)
}

// SendCode delivers the current access code out-of-band to the admin chat.
func (n *Notifier) SendCode(ctx context.Context, code string) error {
	return n.sendMessage(ctx, "Current access code: "+code)
}

func (n *Notifier) sendMessage(ctx context.Context, text string) error {
	if !n.enabled {
		n.log.Debug().Str("text", text).Msg("Notifier disabled, dropping message")
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"chat_id": n.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("bot API returned status %d", resp.StatusCode)
	}
	return nil
}

// Update is the subset of an inbound bot webhook update the code
// side-channel needs.
type Update struct {
	Message struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// IsCodeRequest reports whether this update is the recognized admin chat
// asking for the current access code.
func (n *Notifier) IsCodeRequest(u *Update) bool {
	return n.chatID != 0 && u.Message.Chat.ID == n.chatID && u.Message.Text == "/code"
}
