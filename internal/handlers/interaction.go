package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hadithhub/hadith-backend/internal/middleware"
	"github.com/hadithhub/hadith-backend/internal/services"
)

type InteractionHandler struct {
	interactionService services.InteractionService
	patternService     services.PatternService
}

func NewInteractionHandler(interactionService services.InteractionService, patternService services.PatternService) *InteractionHandler {
	return &InteractionHandler{
		interactionService: interactionService,
		patternService:     patternService,
	}
}

func (h *InteractionHandler) Track(c *gin.Context) {
	var input services.TrackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	row, err := h.interactionService.Track(c.Request.Context(), middleware.CurrentUserID(c), input)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "track_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"interaction": row})
}

func (h *InteractionHandler) GetUserStats(c *gin.Context) {
	stats, err := h.interactionService.GetUserStats(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "stats_failed", err)
		return
	}
	RespondOK(c, gin.H{"stats": stats})
}

func (h *InteractionHandler) GetReadingPatterns(c *gin.Context) {
	patterns, err := h.patternService.GetPatterns(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "patterns_failed", err)
		return
	}
	RespondOK(c, gin.H{"patterns": patterns})
}
