package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focusmate/internal/middleware"
	"focusmate/internal/service"
)

type TeamHandler struct {
	teamService *service.TeamService
}

type createTeamRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type updateTeamRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type addMemberRequest struct {
	UserID string `json:"userId" binding:"required"`
	Role   string `json:"role" binding:"omitempty,oneof=admin member"`
}

type removeMemberRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func NewTeamHandler(teamService *service.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

func (h *TeamHandler) Create(c *gin.Context) {
	var req createTeamRequest
	if !bindJSON(c, &req) {
		return
	}

	team, apiErr := h.teamService.Create(c.Request.Context(), middleware.UserID(c), req.Name, req.Description)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Team created successfully", "team": team})
}

func (h *TeamHandler) List(c *gin.Context) {
	teams, apiErr := h.teamService.List(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, teams)
}

func (h *TeamHandler) Get(c *gin.Context) {
	team, apiErr := h.teamService.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, team)
}

func (h *TeamHandler) AddMember(c *gin.Context) {
	var req addMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	team, apiErr := h.teamService.AddMember(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.UserID, req.Role)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member added successfully", "team": team})
}

func (h *TeamHandler) RemoveMember(c *gin.Context) {
	var req removeMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	team, apiErr := h.teamService.RemoveMember(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.UserID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully", "team": team})
}

func (h *TeamHandler) Update(c *gin.Context) {
	var req updateTeamRequest
	if !bindJSON(c, &req) {
		return
	}

	team, apiErr := h.teamService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), service.UpdateTeamInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Team updated successfully", "team": team})
}

func (h *TeamHandler) Delete(c *gin.Context) {
	if apiErr := h.teamService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Team deleted successfully"})
}
