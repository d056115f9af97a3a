package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/prepstem/ieltsmock-backend/internal/model"
	"github.com/prepstem/ieltsmock-backend/internal/response"
	"github.com/prepstem/ieltsmock-backend/internal/service"
	"github.com/prepstem/ieltsmock-backend/internal/validator"
)

// GateHandler handles the standalone access code check.
type GateHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
}

// NewGateHandler creates a new GateHandler.
func NewGateHandler(sessionService *service.SessionService, log zerolog.Logger) *GateHandler {
	return &GateHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "gate_handler").Logger(),
	}
}

// VerifyCode godoc
// POST /api/v1/verify-code
// Checks the submitted code against the current rolling access code. A
// malformed payload gets the same rejection as a wrong code: the candidate
// retries either way.
func (h *GateHandler) VerifyCode(c *gin.Context) {
	var req model.VerifyCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		h.log.Debug().Interface("fields", fields).Msg("Malformed code payload")
		response.Fail(c, http.StatusUnauthorized, response.ErrWrongAccessCode)
		return
	}

	if !h.sessionService.VerifyCode(req.Code) {
		response.Fail(c, http.StatusUnauthorized, response.ErrWrongAccessCode)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"valid": true})
}
