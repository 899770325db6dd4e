package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/gforms-server/config"
	"github.com/vnkhanh/gforms-server/models"
)

const (
	CtxForm     = "formObj"
	CtxTemplate = "templateObj"
	CtxResponse = "responseObj"
)

// ParamID parses a positive numeric path parameter.
func ParamID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// load fetches the row named by :id into dst and stores it under key.
// It does no authorization; handlers ask the policy.
func load[T any](key, label string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParamID(c, "id")
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid " + label + " id"})
			return
		}

		var obj T
		if err := config.DB.First(&obj, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": label + " not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to load " + label})
			return
		}

		c.Set(key, &obj)
		c.Next()
	}
}

func LoadForm() gin.HandlerFunc     { return load[models.Form](CtxForm, "Form") }
func LoadTemplate() gin.HandlerFunc { return load[models.Template](CtxTemplate, "Template") }
func LoadResponse() gin.HandlerFunc { return load[models.Response](CtxResponse, "Response") }

func FormFrom(c *gin.Context) *models.Form {
	return c.MustGet(CtxForm).(*models.Form)
}

func TemplateFrom(c *gin.Context) *models.Template {
	return c.MustGet(CtxTemplate).(*models.Template)
}

func ResponseFrom(c *gin.Context) *models.Response {
	return c.MustGet(CtxResponse).(*models.Response)
}
