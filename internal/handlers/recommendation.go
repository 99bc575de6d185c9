package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hadithhub/hadith-backend/internal/middleware"
	"github.com/hadithhub/hadith-backend/internal/services"
)

type RecommendationHandler struct {
	recommendationService services.RecommendationService
}

func NewRecommendationHandler(recommendationService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService}
}

func (h *RecommendationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	strategy := c.Query("type")

	views, err := h.recommendationService.GetUserRecommendations(
		c.Request.Context(), middleware.CurrentUserID(c), limit, strategy)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "recommendations_failed", err)
		return
	}
	RespondOK(c, gin.H{"recommendations": views, "count": len(views)})
}

func (h *RecommendationHandler) Generate(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	recs, err := h.recommendationService.Generate(c.Request.Context(), middleware.CurrentUserID(c), limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "generation_failed", err)
		return
	}
	RespondOK(c, gin.H{"recommendations": recs, "count": len(recs)})
}

func (h *RecommendationHandler) TrackInteraction(c *gin.Context) {
	recID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var body struct {
		Action string `json:"action"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	if err := h.recommendationService.TrackRecommendationInteraction(
		c.Request.Context(), middleware.CurrentUserID(c), recID, body.Action); err != nil {
		RespondError(c, http.StatusBadRequest, "track_failed", err)
		return
	}
	RespondOK(c, gin.H{"tracked": true})
}

func (h *RecommendationHandler) Rate(c *gin.Context) {
	recID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var body struct {
		Rating int `json:"rating"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	err = h.recommendationService.Rate(c.Request.Context(), middleware.CurrentUserID(c), recID, body.Rating)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		RespondError(c, http.StatusBadRequest, "rate_failed", err)
		return
	}
	RespondOK(c, gin.H{"rated": true})
}

func (h *RecommendationHandler) Delete(c *gin.Context) {
	recID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}

	err = h.recommendationService.Delete(c.Request.Context(), middleware.CurrentUserID(c), recID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (h *RecommendationHandler) ClearOld(c *gin.Context) {
	deleted, err := h.recommendationService.ClearOld(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "clear_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": deleted})
}

func (h *RecommendationHandler) Diagnosis(c *gin.Context) {
	report, err := h.recommendationService.Diagnose(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "diagnosis_failed", err)
		return
	}
	RespondOK(c, gin.H{"diagnosis": report})
}
