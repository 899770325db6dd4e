package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/gforms-server/config"
)

func HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := gin.H{
		"status": "ok",
		"db":     "ok",
		"cache":  "ok",
	}
	status := http.StatusOK

	sqlDB, err := config.DB.DB()
	if err != nil {
		response["db"] = "error: cannot get DB instance"
		status = http.StatusInternalServerError
	} else if err := sqlDB.PingContext(ctx); err != nil {
		response["db"] = "error: cannot connect to DB"
		status = http.StatusInternalServerError
	}

	// A missing cache slows reports down but does not break the service.
	if err := svc.Reports.Ping(ctx); err != nil {
		response["cache"] = "error: " + err.Error()
		response["status"] = "degraded"
	}
	if status != http.StatusOK {
		response["status"] = "error"
	}

	c.JSON(status, response)
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
