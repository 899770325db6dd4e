package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/gforms-server/config"
	"github.com/vnkhanh/gforms-server/models"
	"github.com/vnkhanh/gforms-server/stats"
	"github.com/vnkhanh/gforms-server/utils"
)

// GenerateOdooToken issues a new API token for the caller. Only its hash
// is kept; the previous token stops working.
func GenerateOdooToken(c *gin.Context) {
	user := currentUser(c)

	token, err := utils.GenerateAPIToken()
	if err != nil {
		respondError(c, err)
		return
	}
	hash := utils.HashAPIToken(token)
	now := time.Now().UTC()
	err = config.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"odoo_token_hash":         hash,
		"odoo_token_generated_at": now,
	}).Error
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": now.Add(svc.OdooTokenTTL)})
}

type odooTemplate struct {
	ID            uint                   `json:"id"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	Category      string                 `json:"category"`
	IsPublic      bool                   `json:"is_public"`
	CreatedAt     time.Time              `json:"created_at"`
	ResponseCount int                    `json:"response_count"`
	Questions     []stats.QuestionReport `json:"questions"`
}

// ownerTemplateReports builds the report of every template owned by userID.
func ownerTemplateReports(c *gin.Context, userID uint) ([]odooTemplate, error) {
	var templates []models.Template
	if err := config.DB.Where("owner_id = ?", userID).Order("created_at ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	out := make([]odooTemplate, 0, len(templates))
	for i := range templates {
		t := &templates[i]
		r, err := templateReport(c.Request.Context(), t)
		if err != nil {
			return nil, err
		}
		out = append(out, odooTemplate{
			ID:            t.ID,
			Title:         t.Title,
			Description:   t.Description,
			Category:      t.Category,
			IsPublic:      t.IsPublic,
			CreatedAt:     t.CreatedAt,
			ResponseCount: r.ResponseCount,
			Questions:     r.Questions,
		})
	}
	return out, nil
}

// OdooData handles GET /api/odoo/data?token=: the token owner's templates
// with per-question statistics.
func OdooData(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "API token is required"})
		return
	}

	now := time.Now().UTC()
	var user models.User
	err := config.DB.Where("odoo_token_hash = ?", utils.HashAPIToken(token)).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, err)
		return
	}
	if err != nil || !odooTokenLive(user.OdooTokenGeneratedAt, now) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired API token"})
		return
	}

	templates, err := ownerTemplateReports(c, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         gin.H{"id": user.ID, "name": user.Name, "email": user.Email},
		"templates":    templates,
		"generated_at": now,
		"expires_at":   user.OdooTokenGeneratedAt.UTC().Add(svc.OdooTokenTTL),
	})
}

// odooTokenLive rejects tokens older than the TTL and future dated ones.
func odooTokenLive(generated *time.Time, now time.Time) bool {
	if generated == nil {
		return false
	}
	return !generated.After(now) && now.Sub(*generated) <= svc.OdooTokenTTL
}

// OdooSync pushes the caller's template reports into the configured Odoo model.
func OdooSync(c *gin.Context) {
	if svc.Odoo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Odoo is not configured"})
		return
	}
	user := currentUser(c)
	templates, err := ownerTemplateReports(c, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	ids := make([]int, 0, len(templates))
	for _, t := range templates {
		report, err := json.Marshal(t.Questions)
		if err != nil {
			respondError(c, err)
			return
		}
		id, err := svc.Odoo.Create(c.Request.Context(), svc.Odoo.Model(), map[string]any{
			"x_name":           t.Title,
			"x_category":       t.Category,
			"x_template_id":    t.ID,
			"x_owner_email":    user.Email,
			"x_response_count": t.ResponseCount,
			"x_report":         string(report),
		})
		if err != nil {
			svc.Logger.Error("odoo sync failed", slog.Uint64("template_id", uint64(t.ID)), slog.String("error", err.Error()))
			c.JSON(http.StatusBadGateway, gin.H{"message": "Odoo sync failed", "synced": len(ids), "ids": ids})
			return
		}
		ids = append(ids, id)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Synced", "synced": len(ids), "ids": ids})
}
