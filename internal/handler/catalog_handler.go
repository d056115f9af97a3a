package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepstem/ieltsmock-backend/internal/catalog"
	"github.com/prepstem/ieltsmock-backend/internal/config"
	"github.com/prepstem/ieltsmock-backend/internal/response"
)

const paperCacheTTL = 10 * time.Minute

// CatalogHandler serves the candidate-facing test catalog.
type CatalogHandler struct {
	catalog *catalog.Catalog
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cat *catalog.Catalog, rdb *redis.Client, log zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: cat,
		rdb:     rdb,
		log:     log.With().Str("component", "catalog_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/tests
// Returns the available test sections without their questions.
func (h *CatalogHandler) List(c *gin.Context) {
	sections := h.catalog.List()
	items := make([]gin.H, 0, len(sections))
	for _, s := range sections {
		items = append(items, gin.H{
			"id":                   s.ID,
			"title":                s.Title,
			"skill":                s.Skill,
			"duration_minutes":     s.DurationMinutes,
			"requires_access_code": s.RequiresAccessCode,
			"num_questions":        len(s.Questions),
		})
	}
	response.Success(c, http.StatusOK, gin.H{"tests": items})
}

// GetPaper godoc
// GET /api/v1/tests/:section_id/paper
// Returns the section's questions with all answer material stripped. The
// rendered paper is cached in Redis since it only changes on reload.
func (h *CatalogHandler) GetPaper(c *gin.Context) {
	sectionID := c.Param("section_id")

	sec, ok := h.catalog.Get(sectionID)
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrSectionNotFound)
		return
	}

	key := config.CacheKey.SectionPaperKey(sectionID)
	if cached, err := h.rdb.Get(c.Request.Context(), key).Result(); err == nil {
		var paper catalog.Paper
		if err := json.Unmarshal([]byte(cached), &paper); err == nil {
			response.Success(c, http.StatusOK, gin.H{"paper": paper})
			return
		}
	}

	paper := sec.Paper()
	if raw, err := json.Marshal(paper); err == nil {
		if err := h.rdb.Set(c.Request.Context(), key, raw, paperCacheTTL).Err(); err != nil {
			h.log.Warn().Err(err).Str("section_id", sectionID).Msg("Paper cache write failed")
		}
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}
