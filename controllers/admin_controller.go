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

/* ========== Users ========== */

func AdminListUsers(c *gin.Context) {
	page, limit, offset := pagination(c)
	q := config.DB.Model(&models.User{})
	if s := strings.TrimSpace(c.Query("q")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}
	var users []models.User
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "page": page, "limit": limit, "total": total})
}

func AdminUserStats(c *gin.Context) {
	var out struct {
		Total   int64 `json:"total"`
		Active  int64 `json:"active"`
		Blocked int64 `json:"blocked"`
		Admins  int64 `json:"admins"`
	}
	users := func() *gorm.DB { return config.DB.Model(&models.User{}) }
	for _, step := range []*gorm.DB{
		users().Count(&out.Total),
		users().Where("is_blocked = ?", false).Count(&out.Active),
		users().Where("is_blocked = ?", true).Count(&out.Blocked),
		users().Where("role IN ?", []models.Role{models.RoleAdmin, models.RoleSuperAdmin}).Count(&out.Admins),
	} {
		if step.Error != nil {
			respondError(c, step.Error)
			return
		}
	}
	c.JSON(http.StatusOK, out)
}

// bulkActions maps the route action onto the policy action and the role it sets.
var bulkActions = map[string]struct {
	action policy.Action
	role   models.Role
}{
	"block":   {action: policy.ActionBlock},
	"unblock": {action: policy.ActionUnblock},
	"promote": {action: policy.ActionChangeRole, role: models.RoleAdmin},
	"demote":  {action: policy.ActionChangeRole, role: models.RoleUser},
	"delete":  {action: policy.ActionDeleteUser},
}

type bulkReq struct {
	UserIDs []uint `json:"user_ids" binding:"required,min=1"`
}

// loadUsers fetches every id or reports which were missing.
func loadUsers(ids []uint) ([]models.User, bool, error) {
	uniq := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		uniq[id] = struct{}{}
	}
	var users []models.User
	if err := config.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, false, err
	}
	return users, len(users) == len(uniq), nil
}

// BulkUserAction handles POST /api/admin/users/bulk/:action.
func BulkUserAction(c *gin.Context) {
	spec, ok := bulkActions[c.Param("action")]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid action"})
		return
	}
	var req bulkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "user_ids is required"})
		return
	}

	users, all, err := loadUsers(req.UserIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	if !all {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Some users were not found"})
		return
	}

	target := policy.UsersTarget(users...)
	if spec.action == policy.ActionChangeRole {
		target = target.WithRole(spec.role)
	}
	if !authorize(c, target, spec.action) {
		return
	}

	var modified int64
	switch spec.action {
	case policy.ActionDeleteUser:
		modified, err = deleteUsers(req.UserIDs)
	case policy.ActionBlock, policy.ActionUnblock:
		modified, err = updateUsers(req.UserIDs, "is_blocked", spec.action == policy.ActionBlock)
	case policy.ActionChangeRole:
		modified, err = updateUsers(req.UserIDs, "role", spec.role)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Users updated", "modified_count": modified})
}

func updateUsers(ids []uint, column string, value any) (int64, error) {
	res := config.DB.Model(&models.User{}).Where("id IN ?", ids).Update(column, value)
	return res.RowsAffected, res.Error
}

// deleteUsers removes accounts and everything they own.
func deleteUsers(ids []uint) (int64, error) {
	var n int64
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var forms []models.Form
		if err := tx.Where("owner_id IN ?", ids).Find(&forms).Error; err != nil {
			return err
		}
		for i := range forms {
			if err := deleteFormCascade(tx, &forms[i]); err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Form{}).
			Where("template_id IN (?)", tx.Model(&models.Template{}).Select("id").Where("owner_id IN ?", ids)).
			Update("template_id", nil).Error; err != nil {
			return err
		}
		steps := []func() error{
			func() error { return tx.Where("owner_id IN ?", ids).Delete(&models.Template{}).Error },
			func() error { return tx.Where("user_id IN ?", ids).Delete(&models.Like{}).Error },
			func() error { return tx.Where("user_id IN ?", ids).Delete(&models.Comment{}).Error },
			func() error {
				return tx.Model(&models.Response{}).Where("user_id IN ?", ids).Update("user_id", nil).Error
			},
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		res := tx.Where("id IN ?", ids).Delete(&models.User{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

type roleReq struct {
	UserID uint        `json:"user_id" binding:"required"`
	Role   models.Role `json:"role"    binding:"required"`
}

// ChangeUserRole handles POST /api/admin/users/role.
func ChangeUserRole(c *gin.Context) {
	var req roleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "user_id and role are required"})
		return
	}
	var user models.User
	if err := config.DB.First(&user, req.UserID).Error; err != nil {
		respondError(c, err)
		return
	}
	if !authorize(c, policy.UsersTarget(user).WithRole(req.Role), policy.ActionChangeRole) {
		return
	}
	if err := config.DB.Model(&user).Update("role", req.Role).Error; err != nil {
		respondError(c, err)
		return
	}
	user.Role = req.Role
	c.JSON(http.StatusOK, gin.H{"message": "Role updated", "user": user})
}

type userIDReq struct {
	UserID uint `json:"user_id" binding:"required"`
}

// DeleteUser handles POST /api/admin/users/delete.
func DeleteUser(c *gin.Context) {
	var req userIDReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "user_id is required"})
		return
	}
	var user models.User
	if err := config.DB.First(&user, req.UserID).Error; err != nil {
		respondError(c, err)
		return
	}
	if !authorize(c, policy.UsersTarget(user), policy.ActionDeleteUser) {
		return
	}
	if _, err := deleteUsers([]uint{user.ID}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

/* ========== Forms moderation ========== */

func AdminListForms(c *gin.Context) {
	page, limit, offset := pagination(c)
	q := config.DB.Model(&models.Form{})
	if s := strings.TrimSpace(c.Query("q")); s != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}
	var forms []models.Form
	if err := q.Preload("Owner", ownerPreview).Order("created_at DESC").Limit(limit).Offset(offset).Find(&forms).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forms": forms, "page": page, "limit": limit, "total": total})
}

type adminFormReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
	Category    *string `json:"category"`
}

// AdminUpdateForm edits form metadata. Publishing stays with the owner.
func AdminUpdateForm(c *gin.Context) {
	f := middleware.FormFrom(c)
	if !authorize(c, policy.FormTarget(f), policy.ActionUpdate) {
		return
	}
	var req adminFormReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}
	full := formReq{Title: req.Title, Description: req.Description, IsPublic: req.IsPublic, Category: req.Category}
	if err := full.apply(f); err != nil {
		respondError(c, err)
		return
	}
	if err := config.DB.Save(f).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Form updated", "form": f})
}

/* ========== Responses moderation ========== */

func AdminListResponses(c *gin.Context) {
	page, limit, offset := pagination(c)
	q := config.DB.Model(&models.Response{})
	if formID, ok := queryUint(c, "formId"); ok {
		q = q.Where("form_id = ?", formID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}
	var responses []models.Response
	err := q.Preload("Form", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title", "owner_id") }).
		Preload("User", ownerPreview).
		Order("submitted_at DESC").Limit(limit).Offset(offset).
		Find(&responses).Error
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": responses, "page": page, "limit": limit, "total": total})
}

// responseForm loads the form a response belongs to and checks action on its responses.
func responseForm(c *gin.Context, r *models.Response, action policy.Action) (*models.Form, bool) {
	var f models.Form
	if err := config.DB.First(&f, r.FormID).Error; err != nil {
		respondError(c, err)
		return nil, false
	}
	if !authorize(c, policy.FormResponses(&f), action) {
		return nil, false
	}
	return &f, true
}

func AdminGetResponse(c *gin.Context) {
	r := middleware.ResponseFrom(c)
	f, ok := responseForm(c, r, policy.ActionRead)
	if !ok {
		return
	}
	r.Form = f
	c.JSON(http.StatusOK, gin.H{"response": r})
}

type replaceAnswersReq struct {
	Answers []models.Answer `json:"answers" binding:"required"`
}

// AdminUpdateResponse replaces the answer list wholesale.
func AdminUpdateResponse(c *gin.Context) {
	r := middleware.ResponseFrom(c)
	f, ok := responseForm(c, r, policy.ActionUpdate)
	if !ok {
		return
	}
	var req replaceAnswersReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "answers is required"})
		return
	}
	answers, err := models.NormalizeAnswers(f.Questions, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	r.Answers = answers
	if err := config.DB.Model(r).Update("answers", r.Answers).Error; err != nil {
		respondError(c, err)
		return
	}
	invalidateReports(c.Request.Context(), f)
	c.JSON(http.StatusOK, gin.H{"message": "Response updated", "response": r})
}

func AdminDeleteResponse(c *gin.Context) {
	r := middleware.ResponseFrom(c)
	f, ok := responseForm(c, r, policy.ActionDelete)
	if !ok {
		return
	}
	if err := config.DB.Delete(r).Error; err != nil {
		respondError(c, err)
		return
	}
	invalidateReports(c.Request.Context(), f)
	c.JSON(http.StatusOK, gin.H{"message": "Response deleted"})
}
