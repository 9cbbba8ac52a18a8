package routes

import (
	"setup-workflow-api/controllers"
	"setup-workflow-api/middleware"
	"setup-workflow-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"success": true,
					"message": "SETUP Workflow API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Applications
			applications := protected.Group("/applications")
			{
				applications.GET("", controllers.GetApplications)
				applications.GET("/:id", controllers.GetApplication)

				// Only proponents submit and resubmit
				applications.POST("", middleware.RequireRole(models.RoleProponent), controllers.CreateApplication)
				applications.POST("/:id/resubmit", middleware.RequireRole(models.RoleProponent), controllers.ResubmitApplication)

				// PSTO endorses, DOST-MIMAROPA decides
				applications.POST("/:id/review",
					middleware.RequireRole(models.RolePSTO, models.RoleDostMimaropa),
					controllers.ReviewApplication)
			}

			// Document requests
			documents := protected.Group("/document-requests")
			{
				documents.GET("", controllers.GetDocumentRequests)
				documents.GET("/:id", controllers.GetDocumentRequest)
				documents.GET("/:id/download", controllers.DownloadSlotDocument)

				documents.POST("", middleware.RequireRole(models.RoleDostMimaropa), controllers.CreateDocumentRequest)
				documents.POST("/:id/submit",
					middleware.RequireRole(models.RoleProponent, models.RolePSTO),
					controllers.SubmitDocumentSlot)

				documents.POST("/:id/review", middleware.RequireRole(models.RoleDostMimaropa), controllers.ReviewDocumentSlot)
				documents.POST("/:id/request-revision", middleware.RequireRole(models.RoleDostMimaropa), controllers.RequestDocumentRevision)
				documents.POST("/:id/require-additional", middleware.RequireRole(models.RoleDostMimaropa), controllers.RequireAdditionalDocuments)
			}

			// RTEC meetings
			meetings := protected.Group("/meetings")
			{
				meetings.GET("", controllers.GetMeetings)
				meetings.GET("/:id", controllers.GetMeeting)
				meetings.POST("/:id/respond", controllers.RespondInvitation)

				meetings.POST("", middleware.RequireRole(models.RoleDostMimaropa), controllers.CreateMeeting)
				meetings.POST("/:id/invite-psto-bulk", middleware.RequireRole(models.RoleDostMimaropa), controllers.InvitePSTOBulk)
				meetings.POST("/:id/invite-proponent", middleware.RequireRole(models.RoleDostMimaropa), controllers.InviteProponent)
				meetings.POST("/:id/participants/:participantId/resend-invitation",
					middleware.RequireRole(models.RoleDostMimaropa), controllers.ResendInvitation)
				meetings.POST("/:id/participants/:participantId/attendance",
					middleware.RequireRole(models.RoleDostMimaropa), controllers.MarkAttendance)
				meetings.DELETE("/:id/participants/:participantId",
					middleware.RequireRole(models.RoleDostMimaropa), controllers.RemoveParticipant)
				meetings.PATCH("/:id/status", middleware.RequireRole(models.RoleDostMimaropa), controllers.UpdateMeetingStatus)
			}

			// TNA reports
			tna := protected.Group("/tna-reports")
			{
				tna.GET("", controllers.GetTNAReports)
				tna.GET("/:id", controllers.GetTNAReport)
				tna.GET("/:id/download-report", controllers.DownloadTNAReport)
				tna.GET("/:id/download-signed-report", controllers.DownloadSignedTNAReport)

				tna.POST("", middleware.RequireRole(models.RolePSTO), controllers.SubmitTNAReport)
				tna.POST("/:id/review", middleware.RequireRole(models.RoleDostMimaropa), controllers.ReviewTNAReport)
				tna.POST("/:id/upload-signed-report", middleware.RequireRole(models.RoleDostMimaropa), controllers.UploadSignedTNAReport)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.GET("/counter", controllers.GetNotificationCounter)
				notifications.PATCH("/:id/read", controllers.MarkNotificationRead)
				notifications.PATCH("/read-all", controllers.MarkAllNotificationsRead)
			}

			// Dashboard
			dashboard := protected.Group("/dashboard")
			{
				dashboard.GET("/stats", controllers.GetDashboardStats)
			}
		}
	}
}
