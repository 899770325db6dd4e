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

/* ========== List forms ========== */

// ListForms: ?public=true lists public published forms for anyone;
// otherwise the caller's own forms.
func ListForms(c *gin.Context) {
	q := config.DB.Model(&models.Form{}).Preload("Owner", ownerPreview).Order("created_at DESC")
	if cat := strings.TrimSpace(c.Query("category")); cat != "" {
		q = q.Where("category = ?", cat)
	}

	if c.Query("public") == "true" {
		q = q.Where("is_public = ? AND is_published = ?", true, true)
		if uid, ok := queryUint(c, "userId"); ok {
			q = q.Where("owner_id = ?", uid)
		}
	} else {
		actor := middleware.Actor(c)
		if !actor.Authenticated || actor.Blocked {
			c.JSON(http.StatusUnauthorized, gin.H{"message": policy.ReasonAuthRequired})
			return
		}
		q = q.Where("owner_id = ?", actor.ID)
	}

	var forms []models.Form
	if err := q.Find(&forms).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forms": forms})
}

/* ========== Create / update ========== */

type formReq struct {
	Title        *string           `json:"title"`
	Description  *string           `json:"description"`
	Questions    []models.Question `json:"questions"`
	IsPublic     *bool             `json:"is_public"`
	RequireLogin *bool             `json:"require_login"`
	Category     *string           `json:"category"`
}

// apply copies the provided fields onto f and validates the result.
func (r formReq) apply(f *models.Form) error {
	verr := &models.ValidationError{}
	if r.Title != nil {
		f.Title = strings.TrimSpace(*r.Title)
	}
	if f.Title == "" {
		verr.Add("title", "is required")
	}
	if r.Description != nil {
		f.Description = *r.Description
	}
	if r.Questions != nil {
		if err := models.ValidateQuestions(r.Questions); err != nil {
			return err
		}
		f.Questions = r.Questions
	}
	if r.IsPublic != nil {
		f.IsPublic = *r.IsPublic
	}
	if r.RequireLogin != nil {
		f.RequireLogin = *r.RequireLogin
	}
	if r.Category != nil {
		f.Category = strings.TrimSpace(*r.Category)
	}
	if f.Category == "" {
		f.Category = models.DefaultCategory
	}
	return verr.OrNil()
}

func CreateForm(c *gin.Context) {
	if !authorize(c, policy.NewForm(), policy.ActionCreate) {
		return
	}
	var req formReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	form := models.Form{OwnerID: currentUser(c).ID, Questions: []models.Question{}}
	if err := req.apply(&form); err != nil {
		respondError(c, err)
		return
	}
	if err := config.DB.Create(&form).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Form created", "form": form})
}

func GetForm(c *gin.Context) {
	f := middleware.FormFrom(c)
	if !authorize(c, policy.FormTarget(f), policy.ActionRead) {
		return
	}
	if err := config.DB.Preload("Owner", ownerPreview).First(f, f.ID).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": f})
}

func UpdateForm(c *gin.Context) {
	f := middleware.FormFrom(c)
	if !authorize(c, policy.FormTarget(f), policy.ActionUpdate) {
		return
	}
	var req formReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}
	if err := req.apply(f); err != nil {
		respondError(c, err)
		return
	}
	if err := config.DB.Save(f).Error; err != nil {
		respondError(c, err)
		return
	}
	invalidateReports(c.Request.Context(), f)
	c.JSON(http.StatusOK, gin.H{"message": "Form updated", "form": f})
}

func DeleteForm(c *gin.Context) {
	f := middleware.FormFrom(c)
	if !authorize(c, policy.FormTarget(f), policy.ActionDelete) {
		return
	}
	if err := deleteFormCascade(config.DB, f); err != nil {
		respondError(c, err)
		return
	}
	invalidateReports(c.Request.Context(), f)
	c.JSON(http.StatusOK, gin.H{"message": "Form deleted"})
}

// deleteFormCascade removes a form with its responses, likes and comments.
func deleteFormCascade(db *gorm.DB, f *models.Form) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("form_id = ?", f.ID).Delete(&models.Response{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_type = ? AND item_id = ?", models.ItemForm, f.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_type = ? AND item_id = ?", models.ItemForm, f.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(f).Error
	})
}

/* ========== Publish ========== */

type publishReq struct {
	IsPublished *bool `json:"is_published" binding:"required"`
}

func PublishForm(c *gin.Context) {
	f := middleware.FormFrom(c)
	if !authorize(c, policy.FormTarget(f), policy.ActionPublish) {
		return
	}
	var req publishReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "is_published is required"})
		return
	}
	if err := config.DB.Model(f).Update("is_published", *req.IsPublished).Error; err != nil {
		respondError(c, err)
		return
	}
	f.IsPublished = *req.IsPublished
	c.JSON(http.StatusOK, gin.H{"message": "Form updated", "form": f})
}

/* ========== Create from template ========== */

type fromTemplateReq struct {
	TemplateID uint `json:"template_id" binding:"required"`
}

func CreateFormFromTemplate(c *gin.Context) {
	var req fromTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "template_id is required"})
		return
	}

	var tpl models.Template
	if err := config.DB.First(&tpl, req.TemplateID).Error; err != nil {
		respondError(c, err)
		return
	}
	if !authorize(c, policy.TemplateTarget(&tpl), policy.ActionRead) {
		return
	}

	questions := make([]models.Question, len(tpl.Questions))
	copy(questions, tpl.Questions)
	form := models.Form{
		Title:       tpl.Title + " (Copy)",
		Description: tpl.Description,
		Questions:   questions,
		IsPublic:    true,
		Category:    tpl.Category,
		OwnerID:     currentUser(c).ID,
		TemplateID:  &tpl.ID,
	}
	if form.Category == "" {
		form.Category = models.DefaultCategory
	}
	if err := config.DB.Create(&form).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Form created from template", "form": form})
}
