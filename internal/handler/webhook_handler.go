package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/prepstem/ieltsmock-backend/internal/gate"
	"github.com/prepstem/ieltsmock-backend/internal/notify"
)

// WebhookHandler receives Telegram updates. The only recognized command is
// /code from the configured admin chat, answered with the current rolling
// access code.
type WebhookHandler struct {
	gate     *gate.Gate
	notifier *notify.Notifier
	log      zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(g *gate.Gate, notifier *notify.Notifier, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		gate:     g,
		notifier: notifier,
		log:      log.With().Str("component", "webhook_handler").Logger(),
	}
}

// Telegram godoc
// POST /webhook/telegram
// Always answers 200 so Telegram never retries; unrecognized updates are
// dropped.
func (h *WebhookHandler) Telegram(c *gin.Context) {
	var update notify.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.log.Debug().Err(err).Msg("Unparseable webhook payload")
		c.Status(http.StatusOK)
		return
	}

	if !h.notifier.IsCodeRequest(&update) {
		c.Status(http.StatusOK)
		return
	}

	code := h.gate.CurrentCode()
	if err := h.notifier.SendCode(c.Request.Context(), code); err != nil {
		h.log.Error().Err(err).Msg("Access code delivery failed")
	}
	c.Status(http.StatusOK)
}
