package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/prepstem/ieltsmock-backend/internal/model"
	"github.com/prepstem/ieltsmock-backend/internal/response"
	"github.com/prepstem/ieltsmock-backend/internal/service"
	"github.com/prepstem/ieltsmock-backend/internal/session"
	"github.com/prepstem/ieltsmock-backend/internal/validator"
)

// SessionHandler handles candidate session endpoints.
type SessionHandler struct {
	sessionService *service.SessionService
	authService    *service.AuthService
	log            zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService, authService *service.AuthService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		authService:    authService,
		log:            log.With().Str("component", "session_handler").Logger(),
	}
}

// Create godoc
// POST /api/v1/sessions
// Creates a session for one test section: access code check (gated sections
// only), then intake. Returns the session snapshot and a session-scoped token.
func (h *SessionHandler) Create(c *gin.Context) {
	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	identity := session.Identity{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}

	o, err := h.sessionService.Create(c.Request.Context(), req.SectionID, req.AccessCode, identity)
	if err != nil {
		h.failSession(c, err)
		return
	}

	token, err := h.authService.GenerateSessionToken(o.ID())
	if err != nil {
		h.log.Error().Err(err).Msg("Token generation failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"session": o.State(),
		"token":   token,
	})
}

// Start godoc
// POST /api/v1/sessions/:session_id/start
// Moves the session from intro to running and starts the countdown.
func (h *SessionHandler) Start(c *gin.Context) {
	snap, err := h.sessionService.Start(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// Get godoc
// GET /api/v1/sessions/:session_id
// Returns the session snapshot, used by clients to recover after a reload.
func (h *SessionHandler) Get(c *gin.Context) {
	snap, err := h.sessionService.State(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// SetAnswer godoc
// PUT /api/v1/sessions/:session_id/answers/:number
// Replaces the answer slot for one question.
func (h *SessionHandler) SetAnswer(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrQuestionOutOfRange)
		return
	}

	var req model.SetAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.SetAnswer(c.Request.Context(), c.Param("session_id"), number, req.Value); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"number": number})
}

// Submit godoc
// POST /api/v1/sessions/:session_id/submit
// Finishes the session and returns the scored result. Safe to repeat: a
// second call returns the stored result unchanged.
func (h *SessionHandler) Submit(c *gin.Context) {
	result, err := h.sessionService.Submit(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// failSession maps session domain errors onto the API error envelope.
func (h *SessionHandler) failSession(c *gin.Context, err error) {
	var phaseErr *session.PhaseError
	switch {
	case errors.Is(err, service.ErrSectionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSectionNotFound)
	case errors.Is(err, session.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, session.ErrWrongCode):
		response.Fail(c, http.StatusUnauthorized, response.ErrWrongAccessCode)
	case errors.Is(err, session.ErrIdentityIncomplete):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrIdentityIncomplete)
	case errors.Is(err, session.ErrQuestionOutOfRange):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrQuestionOutOfRange)
	case errors.Is(err, session.ErrNotRunning):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotRunning)
	case errors.As(err, &phaseErr):
		response.Fail(c, http.StatusConflict, response.ErrPhaseConflict)
	default:
		h.log.Error().Err(err).Msg("Unhandled session error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
