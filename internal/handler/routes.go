package handler

import (
	"github.com/davargas/prestamo/prestamo-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, clientHandler *ClientHandler, loanHandler *LoanHandler, paymentHandler *PaymentHandler, dashboardHandler *DashboardHandler, attachmentHandler *AttachmentHandler) {
	// API version 1
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Client routes
	clients := api.Group("/clients")
	clients.POST("", clientHandler.CreateClient)
	clients.GET("", clientHandler.GetClients)
	clients.GET("/:id", clientHandler.GetClient)
	clients.PUT("/:id", clientHandler.UpdateClient)
	clients.POST("/:id/deactivate", clientHandler.DeactivateClient)
	clients.GET("/:id/loans", loanHandler.GetClientLoans)

	// Loan routes
	loans := api.Group("/loans")
	loans.POST("", loanHandler.CreateLoan)
	loans.GET("", loanHandler.GetLoans)
	loans.GET("/:id", loanHandler.GetLoan)
	loans.POST("/:id/cancel", loanHandler.CancelLoan)

	// Payment routes
	loans.POST("/:id/payments", paymentHandler.ApplyPayment)
	loans.GET("/:id/payments", paymentHandler.GetLoanPayments)

	// Dashboard routes
	dashboard := api.Group("/dashboard")
	dashboard.GET("/upcoming", dashboardHandler.GetUpcomingPayments)
	dashboard.GET("/stats", dashboardHandler.GetStats)

	// Attachment routes (registered only when external storage is configured)
	if attachmentHandler != nil {
		loans.POST("/:id/attachments", attachmentHandler.UploadLoanDocument)
		loans.GET("/:id/attachments", attachmentHandler.GetLoanAttachments)
		api.DELETE("/attachments/:id", attachmentHandler.DeleteAttachment)
	}
}
