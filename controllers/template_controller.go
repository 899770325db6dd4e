package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/gforms-server/config"
	"github.com/vnkhanh/gforms-server/middleware"
	"github.com/vnkhanh/gforms-server/models"
	"github.com/vnkhanh/gforms-server/policy"
)

// ListTemplates: anonymous callers and ?public=true get public templates.
// ?userId= narrows to one owner, showing private ones only to that owner.
// Signed-in callers otherwise see their own plus public.
func ListTemplates(c *gin.Context) {
	actor := middleware.Actor(c)
	signedIn := actor.Authenticated && !actor.Blocked

	q := config.DB.Model(&models.Template{}).Preload("Owner", ownerPreview).Order("created_at DESC")
	if cat := strings.TrimSpace(c.Query("category")); cat != "" {
		q = q.Where("category = ?", cat)
	}

	uid, byUser := queryUint(c, "userId")
	switch {
	case c.Query("public") == "true" || !signedIn:
		q = q.Where("is_public = ?", true)
	case byUser && uid == actor.ID:
		// every template the caller owns
	case byUser:
		q = q.Where("is_public = ?", true)
	default:
		q = q.Where("(owner_id = ? OR is_public = ?)", actor.ID, true)
	}
	if byUser {
		q = q.Where("owner_id = ?", uid)
	}

	var templates []models.Template
	if err := q.Find(&templates).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

type templateReq struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Questions   []models.Question `json:"questions"`
	IsPublic    *bool             `json:"is_public"`
	Category    *string           `json:"category"`
}

func (r templateReq) apply(t *models.Template) error {
	verr := &models.ValidationError{}
	if r.Title != nil {
		t.Title = strings.TrimSpace(*r.Title)
	}
	if t.Title == "" {
		verr.Add("title", "is required")
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.Questions != nil {
		if err := models.ValidateQuestions(r.Questions); err != nil {
			return err
		}
		t.Questions = r.Questions
	}
	if r.IsPublic != nil {
		t.IsPublic = *r.IsPublic
	}
	if r.Category != nil {
		t.Category = strings.TrimSpace(*r.Category)
	}
	if t.Category == "" {
		verr.Add("category", "is required")
	}
	return verr.OrNil()
}

func CreateTemplate(c *gin.Context) {
	if !authorize(c, policy.NewTemplate(), policy.ActionCreate) {
		return
	}
	var req templateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	tpl := models.Template{OwnerID: currentUser(c).ID, Questions: []models.Question{}}
	if err := req.apply(&tpl); err != nil {
		respondError(c, err)
		return
	}
	if err := config.DB.Create(&tpl).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Template created", "template": tpl})
}

func GetTemplate(c *gin.Context) {
	t := middleware.TemplateFrom(c)
	if !authorize(c, policy.TemplateTarget(t), policy.ActionRead) {
		return
	}
	if err := config.DB.Preload("Owner", ownerPreview).First(t, t.ID).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": t})
}

func UpdateTemplate(c *gin.Context) {
	t := middleware.TemplateFrom(c)
	if !authorize(c, policy.TemplateTarget(t), policy.ActionUpdate) {
		return
	}
	var req templateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}
	if err := req.apply(t); err != nil {
		respondError(c, err)
		return
	}
	if err := config.DB.Save(t).Error; err != nil {
		respondError(c, err)
		return
	}
	invalidateTemplateReport(c, t.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Template updated", "template": t})
}

func DeleteTemplate(c *gin.Context) {
	t := middleware.TemplateFrom(c)
	if !authorize(c, policy.TemplateTarget(t), policy.ActionDelete) {
		return
	}
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		// Forms copied from the template stay; they just lose the link.
		if err := tx.Model(&models.Form{}).Where("template_id = ?", t.ID).Update("template_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("item_type = ? AND item_id = ?", models.ItemTemplate, t.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_type = ? AND item_id = ?", models.ItemTemplate, t.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(t).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	invalidateTemplateReport(c, t.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Template deleted"})
}
