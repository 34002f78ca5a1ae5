package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focusmate/internal/middleware"
	"focusmate/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

type updateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Image *string `json:"image"`
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Get(c *gin.Context) {
	user, apiErr := h.userService.Get(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, apiErr := h.userService.Update(c.Request.Context(), middleware.UserID(c), service.UpdateProfileInput{
		Name:  req.Name,
		Email: req.Email,
		Image: req.Image,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    user,
	})
}
