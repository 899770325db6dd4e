package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/gforms-server/config"
	"github.com/vnkhanh/gforms-server/middleware"
	"github.com/vnkhanh/gforms-server/models"
	"github.com/vnkhanh/gforms-server/policy"
)

// likeTarget resolves a likeable item and the policy target describing it.
func likeTarget(itemType string, id uint) (policy.Target, error) {
	switch itemType {
	case models.ItemForm:
		var f models.Form
		if err := config.DB.First(&f, id).Error; err != nil {
			return policy.Target{}, err
		}
		return policy.FormTarget(&f), nil
	case models.ItemTemplate:
		var t models.Template
		if err := config.DB.First(&t, id).Error; err != nil {
			return policy.Target{}, err
		}
		return policy.TemplateTarget(&t), nil
	}
	return policy.Target{}, &models.ValidationError{Fields: []models.FieldError{{Field: "item_type", Message: "must be form or template"}}}
}

// toggleLike flips the caller's like and returns the new state and total.
func toggleLike(itemType string, itemID, userID uint) (liked bool, count int64, err error) {
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		key := models.Like{ItemType: itemType, ItemID: itemID, UserID: userID}
		res := tx.Where(&key).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&key).Error; err != nil {
				return err
			}
			liked = true
		}
		return tx.Model(&models.Like{}).Where("item_type = ? AND item_id = ?", itemType, itemID).Count(&count).Error
	})
	return liked, count, err
}

func respondLike(c *gin.Context, itemType string, itemID uint) {
	liked, count, err := toggleLike(itemType, itemID, currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_liked": liked, "likes_count": count})
}

// ToggleFormLike handles POST /api/forms/:id/like.
func ToggleFormLike(c *gin.Context) {
	f := middleware.FormFrom(c)
	if !authorize(c, policy.FormTarget(f), policy.ActionLike) {
		return
	}
	respondLike(c, models.ItemForm, f.ID)
}

type likeReq struct {
	ItemType string `json:"item_type" binding:"required"`
	ID       uint   `json:"id"        binding:"required"`
}

// ToggleLike handles POST /api/like for forms and templates.
func ToggleLike(c *gin.Context) {
	var req likeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "item_type and id are required"})
		return
	}
	target, err := likeTarget(req.ItemType, req.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !authorize(c, target, policy.ActionLike) {
		return
	}
	respondLike(c, req.ItemType, req.ID)
}

/* ========== Comments ========== */

// commentThread lists top level comments with their replies, oldest first.
func commentThread(itemType string, itemID uint) ([]models.Comment, error) {
	author := func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }
	var out []models.Comment
	err := config.DB.
		Where("item_type = ? AND item_id = ? AND parent_id IS NULL", itemType, itemID).
		Preload("User", author).
		Preload("Replies", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Replies.User", author).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

type commentReq struct {
	Text     string `json:"text"`
	ParentID *uint  `json:"parent_id"`
}

func addComment(c *gin.Context, itemType string, itemID uint, req commentReq) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Comment text is required"})
		return
	}

	if req.ParentID != nil {
		var parent models.Comment
		err := config.DB.Where("id = ? AND item_type = ? AND item_id = ?", *req.ParentID, itemType, itemID).First(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Comment not found"})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		// Replies hang off the top level comment.
		if parent.ParentID != nil {
			req.ParentID = parent.ParentID
		}
	}

	comment := models.Comment{
		ItemType: itemType,
		ItemID:   itemID,
		UserID:   currentUser(c).ID,
		ParentID: req.ParentID,
		Text:     text,
	}
	if err := config.DB.Create(&comment).Error; err != nil {
		respondError(c, err)
		return
	}

	thread, err := commentThread(itemType, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment, "comments": thread})
}

func listComments(c *gin.Context, itemType string, itemID uint) {
	thread, err := commentThread(itemType, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": thread})
}

func ListFormComments(c *gin.Context) {
	f := middleware.FormFrom(c)
	if !authorize(c, policy.FormTarget(f), policy.ActionRead) {
		return
	}
	listComments(c, models.ItemForm, f.ID)
}

func AddFormComment(c *gin.Context) {
	f := middleware.FormFrom(c)
	if !authorize(c, policy.FormTarget(f), policy.ActionComment) {
		return
	}
	var req commentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}
	addComment(c, models.ItemForm, f.ID, req)
}

func ListTemplateComments(c *gin.Context) {
	t := middleware.TemplateFrom(c)
	if !authorize(c, policy.TemplateTarget(t), policy.ActionRead) {
		return
	}
	listComments(c, models.ItemTemplate, t.ID)
}

func AddTemplateComment(c *gin.Context) {
	t := middleware.TemplateFrom(c)
	if !authorize(c, policy.TemplateTarget(t), policy.ActionComment) {
		return
	}
	var req commentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}
	addComment(c, models.ItemTemplate, t.ID, req)
}

type legacyCommentReq struct {
	TemplateID uint   `json:"template_id" binding:"required"`
	Text       string `json:"text"`
	CommentID  *uint  `json:"comment_id"`
}

// PostComment handles POST /api/comment: a template comment, or a reply
// when comment_id is set.
func PostComment(c *gin.Context) {
	var req legacyCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "template_id is required"})
		return
	}
	var t models.Template
	if err := config.DB.First(&t, req.TemplateID).Error; err != nil {
		respondError(c, err)
		return
	}
	if !authorize(c, policy.TemplateTarget(&t), policy.ActionComment) {
		return
	}
	addComment(c, models.ItemTemplate, t.ID, commentReq{Text: req.Text, ParentID: req.CommentID})
}
