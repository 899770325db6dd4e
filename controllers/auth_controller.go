package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"

	"github.com/vnkhanh/gforms-server/config"
	"github.com/vnkhanh/gforms-server/models"
	"github.com/vnkhanh/gforms-server/utils"
)

/* ========== Signup ========== */

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return
	}
	if !models.ValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please enter a valid email"})
		return
	}

	var count int64
	if err := config.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		respondError(c, err)
		return
	}
	if count > 0 {
		respondError(c, fmt.Errorf("user %w", models.ErrConflict))
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if errors.Is(err, utils.ErrPasswordTooShort) {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		Password:     hash,
		Role:         models.RoleUser,
		AuthProvider: models.ProviderCredentials,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "user": user})
}

/* ========== Login ========== */

type loginReq struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	var user models.User
	err := config.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !utils.CheckPassword(user.Password, req.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	issueSession(c, &user)
}

// issueSession refuses blocked accounts, stamps last_login and returns a JWT.
func issueSession(c *gin.Context, user *models.User) {
	if user.IsBlocked {
		c.JSON(http.StatusForbidden, gin.H{"message": "AccountBlocked"})
		return
	}

	now := time.Now()
	if err := config.DB.Model(user).Update("last_login", now).Error; err != nil {
		respondError(c, err)
		return
	}
	user.LastLogin = &now

	token, err := utils.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

/* ========== Google sign-in ========== */

type googleReq struct {
	IDToken string `json:"id_token" binding:"required"`
}

func verifyGoogleIDToken(ctx context.Context, token, audience string) (map[string]any, error) {
	payload, err := idtoken.Validate(ctx, token, audience)
	if err != nil {
		return nil, err
	}
	return payload.Claims, nil
}

// GoogleLogin signs in with a Google ID token, creating the account on first use.
func GoogleLogin(c *gin.Context) {
	var req googleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "id_token is required"})
		return
	}
	if svc.GoogleClientID == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Google sign-in is not configured"})
		return
	}

	claims, err := svc.VerifyGoogle(c.Request.Context(), req.IDToken, svc.GoogleClientID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid Google token"})
		return
	}
	email, _ := claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Google account has no email"})
		return
	}
	name, _ := claims["name"].(string)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}

	user := models.User{
		Name:         name,
		Email:        email,
		Role:         models.RoleUser,
		AuthProvider: models.ProviderGoogle,
	}
	if err := config.DB.Where(models.User{Email: email}).FirstOrCreate(&user).Error; err != nil {
		respondError(c, err)
		return
	}

	issueSession(c, &user)
}

/* ========== Me ========== */

func Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c)})
}
