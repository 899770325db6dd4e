package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/gforms-server/config"
	"github.com/vnkhanh/gforms-server/middleware"
	"github.com/vnkhanh/gforms-server/models"
	"github.com/vnkhanh/gforms-server/policy"
)

/* ========== Submit ========== */

type submitReq struct {
	FormID  uint            `json:"form_id" binding:"required"`
	Answers []models.Answer `json:"answers"`
}

// SubmitResponse records one submission. Answers are checked against the
// form's questions and stored in their normalized shape.
func SubmitResponse(c *gin.Context) {
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	var form models.Form
	if err := config.DB.First(&form, req.FormID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Form not found"})
			return
		}
		respondError(c, err)
		return
	}
	if !form.IsPublished {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Form is not published"})
		return
	}
	if !authorize(c, policy.FormTarget(&form), policy.ActionSubmitResponse) {
		return
	}

	answers, err := models.NormalizeAnswers(form.Questions, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.Response{FormID: form.ID, Answers: answers}
	if u, ok := middleware.CurrentUser(c); ok {
		resp.UserID = &u.ID
	}
	if err := config.DB.Create(&resp).Error; err != nil {
		respondError(c, err)
		return
	}
	invalidateReports(c.Request.Context(), &form)

	c.JSON(http.StatusCreated, gin.H{"message": "Response submitted", "response": resp})
}

/* ========== List ========== */

// ListResponses: ?formId= lists one form's responses (owner or admin),
// otherwise responses to every form the caller owns.
func ListResponses(c *gin.Context) {
	page, limit, offset := pagination(c)
	q := config.DB.Model(&models.Response{})

	if formID, ok := queryUint(c, "formId"); ok {
		var form models.Form
		if err := config.DB.First(&form, formID).Error; err != nil {
			respondError(c, err)
			return
		}
		if !authorize(c, policy.FormResponses(&form), policy.ActionRead) {
			return
		}
		q = q.Where("form_id = ?", form.ID)
	} else {
		owned := config.DB.Model(&models.Form{}).Select("id").Where("owner_id = ?", currentUser(c).ID)
		q = q.Where("form_id IN (?)", owned)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}
	var responses []models.Response
	if err := q.Preload("User", ownerPreview).Order("submitted_at DESC").Limit(limit).Offset(offset).Find(&responses).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"responses": responses,
		"page":      page,
		"limit":     limit,
		"total":     total,
	})
}
