package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/giovanni-pe/api-smarpx/controllers"
	"github.com/giovanni-pe/api-smarpx/middlewares"
	"github.com/giovanni-pe/api-smarpx/models"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	userCtrl := controllers.NewUserController(db)
	clientCtrl := controllers.NewClientController(db)
	dogCtrl := controllers.NewDogController(db)
	walkerCtrl := controllers.NewWalkerController(db)
	reservationCtrl := controllers.NewReservationController(db)
	contactCtrl := controllers.NewContactController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Visitors can book and browse walkers without an account.
	r.POST("/clients", clientCtrl.CreateClient)
	r.POST("/reservations", reservationCtrl.CreateReservation)
	r.POST("/walk-reservations/demo", reservationCtrl.CreateDemoReservation)
	r.GET("/walkers", walkerCtrl.GetAllWalkers)
	r.GET("/walkers/search", walkerCtrl.SearchWalkers)
	r.GET("/walkers/:walker_id/stats", walkerCtrl.GetWalkerStats)
	r.POST("/contact", contactCtrl.CreateContactMessage)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())

	auth.POST("/logout", userCtrl.Logout)
	auth.GET("/profile", userCtrl.GetProfile)
	auth.GET("/me/reservations", reservationCtrl.GetMyReservations)

	auth.POST("/dogs", dogCtrl.CreateDog)
	auth.GET("/dogs", dogCtrl.GetAllDogs)
	auth.GET("/clients/:client_id", clientCtrl.GetClientByID)
	auth.POST("/clients/:client_id/dogs/:dog_id", clientCtrl.AttachDog)
	auth.POST("/walkers", walkerCtrl.CreateWalker)

	auth.GET("/walkers/:walker_id/reservations", reservationCtrl.GetWalkerReservations)
	auth.GET("/clients/:client_id/reservations", reservationCtrl.GetClientReservations)

	// Lifecycle transitions, each logged with its outcome.
	transitions := auth.Group("/reservations")
	transitions.Use(middlewares.ReservationLoggerMiddleware())
	{
		transitions.POST("/:reservation_id/accept", middlewares.RequireRole(models.RoleWalker), reservationCtrl.Accept)
		transitions.POST("/:reservation_id/reject", middlewares.RequireRole(models.RoleWalker), reservationCtrl.Reject)
		transitions.POST("/:reservation_id/start", middlewares.RequireRole(models.RoleWalker), reservationCtrl.Start)
		transitions.POST("/:reservation_id/complete", middlewares.RequireRole(models.RoleWalker), reservationCtrl.Complete)
		transitions.POST("/:reservation_id/cancel", middlewares.RequireRole(models.RoleClient), reservationCtrl.CancelByClient)
		transitions.POST("/:reservation_id/rate", middlewares.RequireRole(models.RoleClient), reservationCtrl.Rate)
	}

	// Admin only.
	admin := auth.Group("/admin")
	admin.Use(middlewares.RequireRole(models.RoleAdmin))
	{
		admin.PUT("/approve-walker/:user_id", userCtrl.ApproveWalker)
		admin.GET("/users", userCtrl.GetAllUsers)
	}

	return r
}
