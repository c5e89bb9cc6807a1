package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scantech/team-tasks/internal/models"
	"github.com/scantech/team-tasks/internal/services"
)

type UserHandler struct {
	store *services.TaskStore
}

func NewUserHandler(store *services.TaskStore) *UserHandler {
	return &UserHandler{store: store}
}

// ListTeamMembers returns the roster without the team leader
func (h *UserHandler) ListTeamMembers(c *gin.Context) {
	members := []models.User{}
	for _, u := range h.store.TeamMembers() {
		if u.Role == models.RoleTeamMember {
			members = append(members, u)
		}
	}
	c.JSON(http.StatusOK, members)
}
