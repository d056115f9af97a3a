package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/prepstem/ieltsmock-backend/internal/model"
	"github.com/prepstem/ieltsmock-backend/internal/response"
	"github.com/prepstem/ieltsmock-backend/internal/service"
	"github.com/prepstem/ieltsmock-backend/internal/validator"
)

// AdminHandler handles operator login and the results listing.
type AdminHandler struct {
	authService   *service.AuthService
	resultService *service.ResultService
	log           zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(authService *service.AuthService, resultService *service.ResultService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		authService:   authService,
		resultService: resultService,
		log:           log.With().Str("component", "admin_handler").Logger(),
	}
}

// Login godoc
// POST /api/v1/admin/login
// Exchanges the operator credentials for an admin JWT.
func (h *AdminHandler) Login(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	token, err := h.authService.AdminLogin(req.Email, req.Password)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": token})
}

// ListResults godoc
// GET /api/v1/admin/results?page=1&per_page=20&section_id=...
// Returns persisted session results, newest first.
func (h *AdminHandler) ListResults(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	var sectionID *string
	if v := c.Query("section_id"); v != "" {
		sectionID = &v
	}

	results, pagination, err := h.resultService.List(c.Request.Context(), page, perPage, sectionID)
	if err != nil {
		h.log.Error().Err(err).Msg("Result listing failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}
