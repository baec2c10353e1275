package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"hirely/internal/infra/obs"
)

type Handlers struct {
	Booking        BookingHandler
	Wallet         WalletHandler
	Availability   AvailabilityHandler
	Messages       MessageHandler
	Reviews        ReviewsHandler
	Products       ProductHandler
	Auth           AuthHandler
	Me             MeHandler
	Admin          AdminHandler
	AuthMiddleware gin.HandlerFunc
}

// NewRouter wires every route under /api/v1 plus the health checks.
func NewRouter(env string, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	api.POST("/auth/register", h.Auth.Register)

	api.GET("/me", h.Me.Profile)
	api.POST("/me/blocked-dates", h.Me.BlockDates)
	api.DELETE("/me/blocked-dates", h.Me.UnblockDates)
	api.GET("/me/products", h.Products.ListMine)

	api.POST("/products", h.Products.Create)
	api.GET("/products/:id", h.Products.Get)
	api.PUT("/products/:id/pricing", h.Products.UpdatePricing)
	api.DELETE("/products/:id", h.Products.Delete)
	api.GET("/products/:id/price-preview", h.Products.Preview)
	api.GET("/products/:id/unavailable-dates", h.Availability.UnavailableDates)
	api.GET("/products/:id/reviews", h.Reviews.ListByProduct)

	api.POST("/bookings", h.Booking.Create)
	api.GET("/bookings", h.Booking.List)
	api.GET("/bookings/:id", h.Booking.Get)
	api.POST("/bookings/:id/transitions", h.Booking.Transition)
	api.POST("/bookings/:id/cancel", h.Booking.Cancel)
	api.GET("/bookings/:id/messages", h.Messages.List)
	api.POST("/bookings/:id/messages", h.Messages.Post)
	api.POST("/bookings/:id/review", h.Reviews.Submit)

	api.GET("/wallet/balance", h.Wallet.Balance)
	api.GET("/wallet/transactions", h.Wallet.Transactions)
	api.POST("/wallet/payouts", h.Wallet.Payout)

	api.POST("/admin/users/:id/verify-identity", h.Admin.VerifyIdentity)

	return router
}

func NewServer(addr string, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
