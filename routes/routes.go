package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/gforms-server/controllers"
	"github.com/vnkhanh/gforms-server/middleware"
)

// SetupRoutes mounts the API. limiter guards the endpoints that create
// accounts, forms and responses.
func SetupRoutes(r *gin.Engine, limiter *middleware.IPRateLimiter) {
	limited := middleware.RateLimitByIP(limiter)
	authed := middleware.RequireAuth()

	r.GET("/ping", controllers.Ping)
	r.GET("/health", controllers.HealthCheck)

	api := r.Group("/api")
	api.Use(middleware.ResolveActor())
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", limited, controllers.Signup)
			auth.POST("/login", limited, controllers.Login)
			auth.POST("/google", limited, controllers.GoogleLogin)
		}
		api.GET("/me", authed, controllers.Me)

		forms := api.Group("/forms")
		{
			forms.GET("", controllers.ListForms)
			forms.POST("", authed, limited, controllers.CreateForm)
			forms.POST("/create-from-template", authed, limited, controllers.CreateFormFromTemplate)

			form := forms.Group("/:id", middleware.LoadForm())
			form.GET("", controllers.GetForm)
			form.PUT("", authed, controllers.UpdateForm)
			form.DELETE("", authed, controllers.DeleteForm)
			form.PUT("/publish", authed, controllers.PublishForm)
			form.POST("/like", authed, controllers.ToggleFormLike)
			form.GET("/comments", controllers.ListFormComments)
			form.POST("/comments", authed, controllers.AddFormComment)
			form.GET("/report", authed, controllers.FormReport)
			form.POST("/export", authed, controllers.CreateExport)
		}
		api.GET("/exports/:job_id", authed, controllers.GetExport)

		templates := api.Group("/templates")
		{
			templates.GET("", controllers.ListTemplates)
			templates.POST("", authed, controllers.CreateTemplate)

			tpl := templates.Group("/:id", middleware.LoadTemplate())
			tpl.GET("", controllers.GetTemplate)
			tpl.PUT("", authed, controllers.UpdateTemplate)
			tpl.DELETE("", authed, controllers.DeleteTemplate)
			tpl.GET("/comments", controllers.ListTemplateComments)
			tpl.POST("/comments", authed, controllers.AddTemplateComment)
			tpl.GET("/report", authed, controllers.TemplateReport)
		}

		api.POST("/like", authed, controllers.ToggleLike)
		api.POST("/comment", authed, controllers.PostComment)

		api.POST("/responses", limited, controllers.SubmitResponse)
		api.GET("/responses", authed, controllers.ListResponses)

		api.GET("/stats", authed, controllers.DashboardStats)
		api.POST("/uploads", authed, controllers.UploadFile)
		api.POST("/support/ticket", limited, controllers.CreateSupportTicket)

		odoo := api.Group("/odoo")
		{
			odoo.GET("/token", authed, controllers.GenerateOdooToken)
			odoo.GET("/data", controllers.OdooData)
			odoo.POST("/sync", authed, controllers.OdooSync)
		}

		admin := api.Group("/admin", middleware.RequireAdmin())
		{
			admin.GET("/users", controllers.AdminListUsers)
			admin.GET("/users/stats", controllers.AdminUserStats)
			admin.POST("/users/bulk/:action", controllers.BulkUserAction)
			admin.POST("/users/role", controllers.ChangeUserRole)
			admin.POST("/users/delete", controllers.DeleteUser)

			admin.GET("/forms", controllers.AdminListForms)
			admin.GET("/forms/:id", middleware.LoadForm(), controllers.GetForm)
			admin.PUT("/forms/:id", middleware.LoadForm(), controllers.AdminUpdateForm)
			admin.DELETE("/forms/:id", middleware.LoadForm(), controllers.DeleteForm)

			admin.GET("/responses", controllers.AdminListResponses)
			admin.GET("/responses/:id", middleware.LoadResponse(), controllers.AdminGetResponse)
			admin.PUT("/responses/:id", middleware.LoadResponse(), controllers.AdminUpdateResponse)
			admin.DELETE("/responses/:id", middleware.LoadResponse(), controllers.AdminDeleteResponse)
		}
	}
}
