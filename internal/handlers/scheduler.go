package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/hadithhub/hadith-backend/internal/scheduler"
)

type SchedulerHandler struct {
	scheduler *scheduler.Scheduler
}

func NewSchedulerHandler(s *scheduler.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: s}
}

func (h *SchedulerHandler) Status(c *gin.Context) {
	RespondOK(c, h.scheduler.Status())
}
