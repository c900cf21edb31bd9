package main

import (
	"nutriplan/config"
	"nutriplan/controllers"
	"nutriplan/logger"
	"nutriplan/routes"
	"nutriplan/scheduler"
	"nutriplan/services"
	"nutriplan/utils"

	"go.uber.org/zap"
)

func main() {
	logger.InitializeLogger()
	defer logger.Close()

	config.InitDB()

	hub := services.NewRealtimeHub()
	push, err := services.NewPushService(config.DB)
	if err != nil {
		logger.Warn("push disabled", zap.Error(err))
		push = nil
	}
	if err := utils.InitMailer(); err != nil {
		logger.Warn("mailer disabled", zap.Error(err))
	}

	delivery := services.NewDeliveryService(config.DB, push, hub)
	sched := scheduler.NewMemory(delivery.HandleTask)
	defer sched.Close()

	controllers.Init(sched)

	r := routes.SetupRouter(push, hub)
	if err := r.Run(":8080"); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
