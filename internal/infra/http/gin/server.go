package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"villabay/internal/infra/config"
	"villabay/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
	Cancel(c *gin.Context)
	Pay(c *gin.Context)
	ReconcilePayment(c *gin.Context)
	ListMine(c *gin.Context)
}

type AvailabilityHTTP interface {
	Quote(c *gin.Context)
	SetAvailability(c *gin.Context)
	AddPricingRule(c *gin.Context)
}

type ReviewHTTP interface {
	Record(c *gin.Context)
	Eligibility(c *gin.Context)
}

type Handlers struct {
	Booking      BookingHTTP
	Availability AvailabilityHTTP
	Review       ReviewHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
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
	router.Use(ActorMiddleware{}.Handle)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings", h.Booking.ListMine)
		api.POST("/bookings/:id/approve", h.Booking.Approve)
		api.POST("/bookings/:id/reject", h.Booking.Reject)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.POST("/bookings/:id/pay", h.Booking.Pay)
		api.POST("/bookings/:id/payment/reconcile", h.Booking.ReconcilePayment)
	}
	if h.Availability != nil {
		api.GET("/villas/:id/quote", h.Availability.Quote)
		api.PUT("/villas/:id/availability", h.Availability.SetAvailability)
		api.POST("/villas/:id/pricing-rules", h.Availability.AddPricingRule)
	}
	if h.Review != nil {
		api.GET("/bookings/:id/review-eligibility", h.Review.Eligibility)
		api.POST("/bookings/:id/reviews", h.Review.Record)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
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
