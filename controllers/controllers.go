package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/gforms-server/cache"
	"github.com/vnkhanh/gforms-server/middleware"
	"github.com/vnkhanh/gforms-server/models"
	"github.com/vnkhanh/gforms-server/policy"
	"github.com/vnkhanh/gforms-server/storage"
)

// OdooSyncer pushes records into Odoo.
type OdooSyncer interface {
	Model() string
	Create(ctx context.Context, model string, values map[string]any) (int, error)
}

// GoogleVerifier checks a Google ID token and returns its claims.
type GoogleVerifier func(ctx context.Context, idToken, audience string) (map[string]any, error)

// Services are the collaborators handlers reach besides config.DB.
type Services struct {
	Reports        cache.ReportCache
	Uploader       storage.Uploader
	Odoo           OdooSyncer
	VerifyGoogle   GoogleVerifier
	GoogleClientID string
	OdooTokenTTL   time.Duration
	Logger         *slog.Logger
}

var svc = Services{
	Reports:      cache.Noop{},
	OdooTokenTTL: 7 * 24 * time.Hour,
	Logger:       slog.Default(),
}

// Init installs the handler dependencies. Zero fields keep their defaults.
func Init(s Services) {
	if s.Reports == nil {
		s.Reports = cache.Noop{}
	}
	if s.OdooTokenTTL <= 0 {
		s.OdooTokenTTL = 7 * 24 * time.Hour
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	if s.VerifyGoogle == nil {
		s.VerifyGoogle = verifyGoogleIDToken
	}
	svc = s
}

// authorize asks the policy and writes the denial when there is one.
func authorize(c *gin.Context, target policy.Target, action policy.Action) bool {
	d := policy.Evaluate(middleware.Actor(c), target, action)
	if !d.Allowed {
		c.JSON(d.Status(), gin.H{"message": d.Reason})
		return false
	}
	return true
}

func currentUser(c *gin.Context) models.User {
	return c.MustGet(middleware.CtxUser).(models.User)
}

// respondError maps domain and storage errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": verr.Fields})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		svc.Logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("request_id", c.GetString(middleware.CtxRequestID)),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

// pagination reads ?page=&limit= with the same bounds everywhere.
func pagination(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

func queryUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// invalidateReports drops cached reports that include responses to f.
func invalidateReports(ctx context.Context, f *models.Form) {
	keys := []string{cache.FormReportKey(f.ID)}
	if f.TemplateID != nil {
		keys = append(keys, cache.TemplateReportKey(*f.TemplateID))
	}
	if err := svc.Reports.Delete(ctx, keys...); err != nil {
		svc.Logger.Warn("report cache invalidation failed", slog.Uint64("form_id", uint64(f.ID)), slog.String("error", err.Error()))
	}
}

func ownerPreview(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email")
}
