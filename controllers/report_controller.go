package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/gforms-server/cache"
	"github.com/vnkhanh/gforms-server/config"
	"github.com/vnkhanh/gforms-server/middleware"
	"github.com/vnkhanh/gforms-server/models"
	"github.com/vnkhanh/gforms-server/policy"
	"github.com/vnkhanh/gforms-server/stats"
)

// cachedReport serves key from the report cache or computes and stores it.
// Cache failures only cost a recomputation.
func cachedReport(ctx context.Context, key string, build func() (stats.Report, error)) (stats.Report, error) {
	var r stats.Report
	if hit, err := svc.Reports.Get(ctx, key, &r); err != nil {
		svc.Logger.Warn("report cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	} else if hit {
		return r, nil
	}

	r, err := build()
	if err != nil {
		return r, err
	}
	if err := svc.Reports.Set(ctx, key, r); err != nil {
		svc.Logger.Warn("report cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return r, nil
}

func formReport(ctx context.Context, f *models.Form) (stats.Report, error) {
	return cachedReport(ctx, cache.FormReportKey(f.ID), func() (stats.Report, error) {
		var responses []models.Response
		if err := config.DB.WithContext(ctx).Where("form_id = ?", f.ID).Find(&responses).Error; err != nil {
			return stats.Report{}, err
		}
		return stats.BuildReport(f.Questions, responses), nil
	})
}

// templateReport aggregates the responses of every form copied from t.
func templateReport(ctx context.Context, t *models.Template) (stats.Report, error) {
	return cachedReport(ctx, cache.TemplateReportKey(t.ID), func() (stats.Report, error) {
		var responses []models.Response
		derived := config.DB.Model(&models.Form{}).Select("id").Where("template_id = ?", t.ID)
		if err := config.DB.WithContext(ctx).Where("form_id IN (?)", derived).Find(&responses).Error; err != nil {
			return stats.Report{}, err
		}
		return stats.BuildReport(t.Questions, responses), nil
	})
}

func invalidateTemplateReport(c *gin.Context, id uint) {
	if err := svc.Reports.Delete(c.Request.Context(), cache.TemplateReportKey(id)); err != nil {
		svc.Logger.Warn("report cache invalidation failed", slog.Uint64("template_id", uint64(id)), slog.String("error", err.Error()))
	}
}

// FormReport handles GET /api/forms/:id/report.
func FormReport(c *gin.Context) {
	f := middleware.FormFrom(c)
	if !authorize(c, policy.FormResponses(f), policy.ActionRead) {
		return
	}
	r, err := formReport(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form_id": f.ID, "title": f.Title, "report": r})
}

// TemplateReport handles GET /api/templates/:id/report.
func TemplateReport(c *gin.Context) {
	t := middleware.TemplateFrom(c)
	if !authorize(c, policy.TemplateResponses(t), policy.ActionRead) {
		return
	}
	r, err := templateReport(c.Request.Context(), t)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template_id": t.ID, "title": t.Title, "report": r})
}
