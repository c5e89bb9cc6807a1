package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scantech/team-tasks/internal/dto"
	apierrors "github.com/scantech/team-tasks/internal/errors"
	"github.com/scantech/team-tasks/internal/notification"
)

// EmailHandler relays messages through the server's notification sender
type EmailHandler struct {
	sender notification.Sender
}

func NewEmailHandler(sender notification.Sender) *EmailHandler {
	return &EmailHandler{sender: sender}
}

func (h *EmailHandler) SendEmail(c *gin.Context) {
	var req dto.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "to, subject and message are required")
		return
	}

	err := h.sender.Send(c.Request.Context(), notification.Message{
		To:      req.To,
		Subject: req.Subject,
		Body:    req.Message,
	})
	if err != nil {
		log.Printf("Failed to send email to %s: %v", req.To, err)
		apierrors.BadGateway(c, "Failed to send email")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
