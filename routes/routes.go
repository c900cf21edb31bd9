package routes

import (
	"nutriplan/controllers"
	"nutriplan/middlewares"
	"nutriplan/services"

	"github.com/gin-gonic/gin"
)

func SetupRouter(push *services.PushService, hub *services.RealtimeHub) *gin.Engine {
	r := gin.Default()

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
	}

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware())
	{
		plans := api.Group("/plans")
		{
			plans.POST("", controllers.CreatePlan)
			plans.GET("", controllers.ListPlans)
			plans.GET("/:planId", controllers.GetPlan)
			plans.PUT("/:planId/pause", controllers.SetPause)
			plans.PUT("/:planId/block", controllers.SetBlock)
			plans.PUT("/:planId/price", controllers.SetPrice)
			plans.DELETE("/:planId", controllers.DeletePlan)
			plans.GET("/:planId/reminders", controllers.ListReminders)

			plans.POST("/:planId/days/:dayId/meals", controllers.AddMeal)
			plans.DELETE("/:planId/days/:dayId/meals/:mealId", controllers.RemoveMeal)
			plans.POST("/:planId/days/:dayId/meals/:mealId/dishes", controllers.AddDishes)
			plans.DELETE("/:planId/days/:dayId/meals/:mealId/dishes/:dishId", controllers.RemoveDish)
		}

		if push != nil {
			dc := controllers.NewDeviceController(push)
			api.POST("/devices", dc.Register)
		}
		rc := controllers.NewRealtimeController(hub)
		api.GET("/ws/reminders", rc.RemindersWS)
	}

	return r
}
