package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rental-backend/controllers"
	"rental-backend/middleware"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// SetupRouter wires the controller instances onto the route tree.
func SetupRouter(
	bc *controllers.BookingController,
	rc *controllers.ReclamationController,
	pc *controllers.PayoutController,
	log *logrus.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		bookings := api.Group("/bookings")
		{
			bookings.GET("", bc.GetBookings)
			bookings.POST("", bc.CreateBooking)
			bookings.GET("/:id", bc.GetBookingDetails)
			bookings.PUT("/:id", bc.UpdateBooking)
			bookings.DELETE("/:id", bc.CancelBooking)

			bookings.POST("/:id/accept", bc.AcceptNegotiation)
			bookings.POST("/:id/reject", bc.RejectNegotiation)
			bookings.POST("/:id/pay", bc.PayBooking)
			bookings.POST("/:id/checkout", bc.TenantCheckout)
			bookings.POST("/:id/confirm-checkout", bc.OwnerConfirmCheckout)
			bookings.POST("/:id/dispute", bc.ReportDispute)
		}

		tenants := api.Group("/tenants")
		{
			tenants.GET("/:id/bookings/current", bc.GetCurrentByTenant)
			tenants.GET("/:id/bookings/pending", bc.GetPendingByTenant)
			tenants.GET("/:id/bookings/awaiting-payment", bc.GetAwaitingPaymentByTenant)
		}

		owners := api.Group("/owners")
		{
			owners.GET("/:id/bookings", bc.GetByOwner)
		}

		reclamations := api.Group("/reclamations")
		{
			reclamations.POST("", rc.CreateReclamation)
			reclamations.GET("", rc.GetReclamation)
			reclamations.PUT("/:id", rc.UpdateReclamation)
			reclamations.DELETE("/:id", rc.DeleteReclamation)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/reclamations", rc.ListReclamations)
			admin.POST("/reclamations/:id/review", rc.ReviewReclamation)
			admin.PATCH("/reclamations/:id/severity", rc.UpdateSeverity)
			admin.POST("/reclamations/:id/resolve", rc.ResolveReclamation)
			admin.POST("/reclamations/:id/reject", rc.RejectReclamation)

			admin.GET("/payouts", pc.ListPayouts)
			admin.POST("/payouts/:id/retry", pc.RetryPayout)
		}
	}

	return r
}
