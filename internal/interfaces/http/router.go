package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jhoicas/logistica-api/internal/application/auth"
	"github.com/jhoicas/logistica-api/internal/application/comment"
	"github.com/jhoicas/logistica-api/internal/application/invoice"
	"github.com/jhoicas/logistica-api/internal/application/notification"
	"github.com/jhoicas/logistica-api/internal/application/stock"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
	"github.com/jhoicas/logistica-api/internal/infrastructure/realtime"
	"github.com/jhoicas/logistica-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AppName   string
	AuthUC    *auth.AuthUseCase
	Invoices  *invoice.Service
	Comments  *comment.Service
	Feed      *notification.FeedService
	Stock     *stock.Engine
	Hub       *realtime.Hub
	JWTSecret string
	Log       *logger.Logger
	Docs      fiber.Handler // Swagger UI; nil = sin /docs
}

// NewServer construye la app Fiber con middlewares base, /health y todas las rutas.
func NewServer(deps RouterDeps) *fiber.App {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	app := fiber.New(fiber.Config{
		AppName:      deps.AppName,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: ErrorHandler(deps.Log),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(RequestLogger(deps.Log.Named("http")))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	if deps.Docs != nil {
		app.Use(deps.Docs)
	}
	Router(app, deps)
	return app
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, log)
	app.Post("/auth/login", authHandler.Login)

	// WebSocket: el token va en el query string
	ws := NewWSHandler(deps.Hub, log.Named("ws"))
	app.Get("/ws", ws.Upgrade(deps.JWTSecret), ws.Serve())

	// Rutas protegidas (requieren Bearer Token)
	protected := app.Group("/", AuthMiddleware(deps.JWTSecret))
	staff := RequireRole(entity.RoleAdmin, entity.RoleAccountant)
	adminOnly := RequireRole(entity.RoleAdmin)

	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/users", adminOnly, authHandler.Register)

	// Invoices
	invoiceHandler := NewInvoiceHandler(deps.Invoices, log)
	invoices := protected.Group("/invoices")
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Get("/:id/logs", invoiceHandler.Logs)
	invoices.Put("/:id", staff, invoiceHandler.Update)
	invoices.Delete("/:id", adminOnly, invoiceHandler.Delete)

	// Comments
	commentHandler := NewCommentHandler(deps.Comments, log)
	comments := protected.Group("/comments")
	comments.Post("/", commentHandler.Post)
	comments.Get("/invoice/:invoiceId", commentHandler.ListByInvoice)
	comments.Put("/:id", commentHandler.Edit)
	comments.Delete("/:id", commentHandler.Delete)

	// Notifications
	notificationHandler := NewNotificationHandler(deps.Feed, log)
	notifications := protected.Group("/notifications")
	notifications.Get("/user/:userId", notificationHandler.ListByUser)
	notifications.Get("/user/:userId/unread-count", notificationHandler.UnreadCount)
	notifications.Put("/user/:userId/read-all", notificationHandler.MarkAllRead)
	notifications.Delete("/user/:userId/read", notificationHandler.ClearRead)
	notifications.Put("/:id/read", notificationHandler.MarkRead)
	notifications.Delete("/:id", notificationHandler.Delete)

	// Stock (staff)
	stockHandler := NewStockHandler(deps.Stock, log)
	stockGroup := protected.Group("/stock", staff)
	stockGroup.Post("/adjustments", adminOnly, stockHandler.Adjust)
	stockGroup.Get("/:productId", stockHandler.Get)
	stockGroup.Get("/:productId/movements", stockHandler.Movements)
}
