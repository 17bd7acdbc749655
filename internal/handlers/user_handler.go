package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/services"
)

// UserHandler serves the authenticated user's own profile.
type UserHandler struct {
	userService services.UserServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile returns the authenticated user
// @Summary     Get current user
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.User "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteProfile removes the authenticated user and all of their data
// @Summary     Delete current user
// @Description Deletes the user with every account, card, invoice, transaction, category and relative they own
// @Tags        users
// @Security    BearerAuth
// @Success     204 "User deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /profile [delete]
func (h *UserHandler) DeleteProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), userID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
