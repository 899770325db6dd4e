package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/gforms-server/middleware"
)

// CreateSupportTicket stores the submitted ticket as a JSON file, tagged
// with the caller when signed in.
func CreateSupportTicket(c *gin.Context) {
	if svc.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "File storage is not configured"})
		return
	}

	var ticket map[string]any
	if err := c.ShouldBindJSON(&ticket); err != nil || len(ticket) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Ticket body must be a JSON object"})
		return
	}

	ticket["user_id"] = nil
	ticket["user_email"] = nil
	if u, ok := middleware.CurrentUser(c); ok {
		ticket["user_id"] = u.ID
		ticket["user_email"] = u.Email
	}

	body, err := json.MarshalIndent(ticket, "", "  ")
	if err != nil {
		respondError(c, err)
		return
	}

	name := fmt.Sprintf("support-tickets/ticket_%d.json", time.Now().UnixMilli())
	url, err := svc.Uploader.Upload(name, "application/json", bytes.NewReader(body))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "file_url": url})
}
