package controllers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/vnkhanh/gforms-server/config"
	"github.com/vnkhanh/gforms-server/middleware"
	"github.com/vnkhanh/gforms-server/models"
	"github.com/vnkhanh/gforms-server/policy"
	"github.com/vnkhanh/gforms-server/storage"
)

type exportReq struct {
	Format    string  `json:"format"`
	RangeFrom *string `json:"range_from,omitempty"`
	RangeTo   *string `json:"range_to,omitempty"`
}

// startExport runs the job in the background; tests swap it for a synchronous call.
var startExport = func(jobID string) { go processExportJob(jobID) }

// CreateExport handles POST /api/forms/:id/export.
func CreateExport(c *gin.Context) {
	form := middleware.FormFrom(c)
	if !authorize(c, policy.FormResponses(form), policy.ActionRead) {
		return
	}
	if svc.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "File storage is not configured"})
		return
	}

	var req exportReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if req.Format == "" {
		req.Format = "csv"
	}
	if req.Format != "csv" && req.Format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "format must be csv or xlsx"})
		return
	}

	job := models.ExportJob{
		JobID:       uuid.NewString(),
		FormID:      form.ID,
		RequestedBy: currentUser(c).ID,
		Format:      req.Format,
		Status:      models.ExportQueued,
	}
	var err error
	if job.RangeFrom, err = parseRangeBound(req.RangeFrom); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "range_from must be RFC3339"})
		return
	}
	if job.RangeTo, err = parseRangeBound(req.RangeTo); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "range_to must be RFC3339"})
		return
	}
	if err := config.DB.Create(&job).Error; err != nil {
		respondError(c, err)
		return
	}

	startExport(job.JobID)

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.JobID, "status": job.Status})
}

func parseRangeBound(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetExport handles GET /api/exports/:job_id. Finished local exports are
// streamed; remote ones are returned as a URL.
func GetExport(c *gin.Context) {
	var job models.ExportJob
	if err := config.DB.First(&job, "job_id = ?", c.Param("job_id")).Error; err != nil {
		respondError(c, err)
		return
	}
	actor := middleware.Actor(c)
	if job.RequestedBy != actor.ID && !actor.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"message": policy.ReasonUnauthorized})
		return
	}

	if job.Status == models.ExportDone && job.Location != nil && storage.IsLocal(*job.Location) && c.Query("download") == "1" {
		c.FileAttachment(*job.Location, filepath.Base(*job.Location))
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

func processExportJob(jobID string) {
	log := svc.Logger.With(slog.String("job_id", jobID))

	var job models.ExportJob
	if err := config.DB.First(&job, "job_id = ?", jobID).Error; err != nil {
		log.Error("export job not found", slog.String("error", err.Error()))
		return
	}
	config.DB.Model(&job).Update("status", models.ExportProcessing)

	location, err := runExport(&job)
	if err != nil {
		log.Error("export failed", slog.String("error", err.Error()))
		config.DB.Model(&job).Updates(map[string]any{"status": models.ExportFailed, "error_msg": err.Error()})
		return
	}
	config.DB.Model(&job).Updates(map[string]any{"status": models.ExportDone, "location": location})
	log.Info("export done", slog.String("location", location))
}

func runExport(job *models.ExportJob) (string, error) {
	var form models.Form
	if err := config.DB.First(&form, job.FormID).Error; err != nil {
		return "", fmt.Errorf("load form: %w", err)
	}

	q := config.DB.Where("form_id = ?", job.FormID).Order("submitted_at ASC")
	if job.RangeFrom != nil {
		q = q.Where("submitted_at >= ?", *job.RangeFrom)
	}
	if job.RangeTo != nil {
		q = q.Where("submitted_at <= ?", *job.RangeTo)
	}
	var responses []models.Response
	if err := q.Find(&responses).Error; err != nil {
		return "", fmt.Errorf("load responses: %w", err)
	}

	rows := exportRows(form.Questions, responses)

	var (
		body        []byte
		contentType string
		err         error
	)
	switch job.Format {
	case "xlsx":
		body, err = writeXLSX(rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		body, err = writeCSV(rows)
		contentType = "text/csv"
	}
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("exports/form_%d_%s.%s", form.ID, job.JobID, job.Format)
	return svc.Uploader.Upload(name, contentType, bytes.NewReader(body))
}

// exportRows lays out one header row plus one row per response, with a
// column per question in form order.
func exportRows(questions []models.Question, responses []models.Response) [][]string {
	header := []string{"response_id", "submitted_at", "user_id"}
	for _, q := range questions {
		label := q.Question
		if label == "" {
			label = q.ID
		}
		header = append(header, label)
	}

	rows := [][]string{header}
	for _, r := range responses {
		user := ""
		if r.UserID != nil {
			user = strconv.FormatUint(uint64(*r.UserID), 10)
		}
		row := []string{strconv.FormatUint(uint64(r.ID), 10), r.SubmittedAt.UTC().Format(time.RFC3339), user}
		for _, q := range questions {
			cell := ""
			if v, ok := r.AnswerFor(q.ID); ok {
				if v.Kind == models.KindMultiChoice {
					cell = strings.Join(v.Choices, "; ")
				} else {
					cell = v.String()
				}
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	return rows
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Responses"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
