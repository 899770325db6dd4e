package controllers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/gforms-server/config"
	"github.com/vnkhanh/gforms-server/models"
)

const trendDays = 30

type dayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DashboardStats handles GET /api/stats for the caller's own content.
func DashboardStats(c *gin.Context) {
	user := currentUser(c)
	owned := config.DB.Model(&models.Form{}).Select("id").Where("owner_id = ?", user.ID)

	var formsCount, responsesCount, templatesCount, publishedCount int64
	for _, q := range []struct {
		dst *int64
		err error
	}{
		{&formsCount, config.DB.Model(&models.Form{}).Where("owner_id = ?", user.ID).Count(&formsCount).Error},
		{&publishedCount, config.DB.Model(&models.Form{}).Where("owner_id = ? AND is_published = ?", user.ID, true).Count(&publishedCount).Error},
		{&responsesCount, config.DB.Model(&models.Response{}).Where("form_id IN (?)", owned).Count(&responsesCount).Error},
		{&templatesCount, config.DB.Model(&models.Template{}).Where("owner_id = ?", user.ID).Count(&templatesCount).Error},
	} {
		if q.err != nil {
			respondError(c, q.err)
			return
		}
	}

	since := time.Now().UTC().AddDate(0, 0, -trendDays)
	var stamps []time.Time
	err := config.DB.Model(&models.Response{}).
		Where("form_id IN (?) AND submitted_at >= ?", owned, since).
		Pluck("submitted_at", &stamps).Error
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"forms_count":           formsCount,
		"published_forms_count": publishedCount,
		"responses_count":       responsesCount,
		"templates_count":       templatesCount,
		"responses_trend":       groupByDay(stamps),
	})
}

// groupByDay counts timestamps per UTC calendar day, oldest first.
func groupByDay(stamps []time.Time) []dayCount {
	counts := make(map[string]int)
	for _, t := range stamps {
		counts[t.UTC().Format("2006-01-02")]++
	}
	out := make([]dayCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, dayCount{Date: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
