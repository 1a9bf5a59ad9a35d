package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"busticket/internal/handler"
	"busticket/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	CatalogHandler *handler.CatalogHandler
	TripHandler    *handler.TripHandler
	BookingHandler *handler.BookingHandler
	PaymentHandler *handler.PaymentHandler
	WalletHandler  *handler.WalletHandler
	UserHandler    *handler.UserHandler
	Authenticator  middleware.Authenticator
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
	Logger         *slog.Logger
	AllowedOrigins []string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(deps.Logger))
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.Authenticate(deps.Authenticator))
	router.Use(middleware.TransactionAttributes())
	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.Logger))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	user := middleware.RequireUser()
	admin := middleware.RequireAdmin()

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Auth routes.
		auth := v1.Group("/auth")
		{
			auth.POST("/register", deps.UserHandler.Register)
			auth.POST("/login", deps.UserHandler.Login)
			auth.POST("/logout", user, deps.UserHandler.Logout)
			auth.GET("/me", user, deps.UserHandler.Me)
		}

		// Location routes.
		locations := v1.Group("/locations")
		{
			locations.GET("", deps.CatalogHandler.ListLocations)
			locations.GET("/:id", deps.CatalogHandler.GetLocation)
			locations.POST("", admin, deps.CatalogHandler.CreateLocation)
			locations.PUT("/:id", admin, deps.CatalogHandler.UpdateLocation)
			locations.DELETE("/:id", admin, deps.CatalogHandler.DeleteLocation)
		}

		// Route routes.
		routes := v1.Group("/routes")
		{
			routes.GET("", deps.CatalogHandler.ListRoutes)
			routes.GET("/:id", deps.CatalogHandler.GetRoute)
			routes.POST("", admin, deps.CatalogHandler.CreateRoute)
			routes.PUT("/:id", admin, deps.CatalogHandler.UpdateRoute)
			routes.DELETE("/:id", admin, deps.CatalogHandler.DeleteRoute)
		}

		// Bus routes.
		buses := v1.Group("/buses")
		{
			buses.GET("", deps.CatalogHandler.ListBuses)
			buses.GET("/:id", deps.CatalogHandler.GetBus)
			buses.GET("/:id/seats", deps.CatalogHandler.BusSeats)
			buses.POST("", admin, deps.CatalogHandler.CreateBus)
			buses.PUT("/:id", admin, deps.CatalogHandler.UpdateBus)
			buses.DELETE("/:id", admin, deps.CatalogHandler.DeleteBus)
		}

		// Seat routes.
		seats := v1.Group("/seats")
		{
			seats.GET("", deps.CatalogHandler.ListSeats)
			seats.GET("/:id", deps.CatalogHandler.GetSeat)
			seats.POST("", admin, deps.CatalogHandler.CreateSeat)
			seats.PUT("/:id", admin, deps.CatalogHandler.UpdateSeat)
			seats.DELETE("/:id", admin, deps.CatalogHandler.DeleteSeat)
		}

		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.GET("", deps.TripHandler.ListTrips)
			trips.GET("/upcoming", deps.TripHandler.UpcomingTrips)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.GET("/:id/available-seats", deps.TripHandler.Availability)
			trips.GET("/:id/seats", deps.TripHandler.SeatMap)
			trips.POST("", admin, deps.TripHandler.CreateTrip)
			trips.PUT("/:id", admin, deps.TripHandler.UpdateTrip)
			trips.DELETE("/:id", admin, deps.TripHandler.DeleteTrip)
		}

		// Booking routes. Guests may create bookings and act on them with their guest token.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.GET("", user, deps.BookingHandler.ListBookings)
			bookings.GET("/my-bookings", user, deps.BookingHandler.MyBookings)
			bookings.GET("/statistics", admin, deps.BookingHandler.Statistics)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.PUT("/:id", deps.BookingHandler.UpdateBooking)
			bookings.DELETE("/:id", deps.BookingHandler.CancelBooking)
			bookings.POST("/:id/confirm", admin, deps.BookingHandler.ConfirmBooking)
			bookings.POST("/:id/cancel", deps.BookingHandler.CancelBooking)
			bookings.GET("/:id/tickets", deps.BookingHandler.BookingTickets)
			bookings.GET("/:id/eticket", deps.BookingHandler.ETicket)
		}

		// Ticket routes.
		tickets := v1.Group("/tickets", user)
		{
			tickets.GET("", deps.BookingHandler.ListTickets)
			tickets.GET("/:id", deps.BookingHandler.GetTicket)
		}

		// Payment routes.
		payments := v1.Group("/payments")
		{
			payments.GET("", admin, deps.PaymentHandler.ListPayments)
			payments.GET("/statistics", admin, deps.PaymentHandler.Statistics)
			payments.GET("/:id", deps.PaymentHandler.GetPayment)
			payments.GET("/:id/status", deps.PaymentHandler.PaymentStatus)
			payments.PATCH("/:id/method", deps.PaymentHandler.UpdateMethod)
			payments.POST("/:id/complete", admin, deps.PaymentHandler.CompletePayment)
			payments.POST("/:id/fail", admin, deps.PaymentHandler.FailPayment)
			payments.POST("/:id/pay-with-wallet", user, deps.PaymentHandler.PayWithWallet)
		}

		// Wallet routes.
		wallets := v1.Group("/wallets", user)
		{
			wallets.GET("/me", deps.WalletHandler.GetWallet)
			wallets.GET("/balance", deps.WalletHandler.Balance)
			wallets.POST("/deposit", deps.WalletHandler.Deposit)
			wallets.POST("/withdraw", deps.WalletHandler.Withdraw)
			wallets.POST("/transfer", deps.WalletHandler.Transfer)
			wallets.GET("/transactions", deps.WalletHandler.Transactions)
		}
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-Guest-Token", "Idempotency-Key"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID", "Idempotent-Replayed"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
