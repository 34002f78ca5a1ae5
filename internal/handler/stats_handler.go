package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "focusmate/internal/errors"
	"focusmate/internal/middleware"
	"focusmate/internal/service"
)

type StatsHandler struct {
	statsService *service.StatsService
}

type updateStatsRequest struct {
	FocusTime      int `json:"focusTime"`
	TasksCompleted int `json:"tasksCompleted"`
}

func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) Get(c *gin.Context) {
	stats, apiErr := h.statsService.Get(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Update records a completed focus session for the caller. The path id must
// name the caller; "me" is accepted as an alias.
func (h *StatsHandler) Update(c *gin.Context) {
	userID := middleware.UserID(c)
	if id := c.Param("id"); id != userID && id != "me" {
		writeError(c, apperrors.Forbidden("cannot update another user's stats"))
		return
	}

	var req updateStatsRequest
	if !bindJSON(c, &req) {
		return
	}

	stats, apiErr := h.statsService.Record(c.Request.Context(), userID, service.RecordSessionInput{
		FocusMinutes:   req.FocusTime,
		TasksCompleted: req.TasksCompleted,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) History(c *gin.Context) {
	limit := 50
	rawLimit := c.Query("limit")
	if rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	sessions, apiErr := h.statsService.History(c.Request.Context(), middleware.UserID(c), limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
