package routes

import (
	"time"

	"artisanhub/handlers"
	"artisanhub/middleware"
	"artisanhub/realtime"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes wires the REST surface, the websocket endpoint, and the
// operational endpoints.
func RegisterRoutes(r *gin.Engine, bookingHandler *handlers.BookingHandler, gateway *realtime.Gateway) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Live connections authenticate with a token query parameter because
	// browser websocket clients cannot set headers.
	r.GET("/ws", gateway.HandleConnection)

	api := r.Group("/api/bookings")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", bookingHandler.CreateBooking)
		api.GET("/:id", bookingHandler.GetBooking)
		api.PUT("/:id/confirm", bookingHandler.ConfirmBooking)
		api.PUT("/:id/start", bookingHandler.StartBooking)
		api.PUT("/:id/complete", bookingHandler.CompleteBooking)
		api.PUT("/:id/cancel", bookingHandler.CancelBooking)
		api.DELETE("/:id", bookingHandler.DeleteBooking)
	}

	r.GET("/health", handlers.HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
