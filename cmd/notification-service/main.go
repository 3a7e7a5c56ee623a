package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/hivemarket/hivemarket/internal/config"
	"github.com/hivemarket/hivemarket/internal/consumer"
	"github.com/hivemarket/hivemarket/internal/db"
	"github.com/hivemarket/hivemarket/internal/discovery"
	"github.com/hivemarket/hivemarket/internal/handlers"
	"github.com/hivemarket/hivemarket/internal/messaging"
	"github.com/hivemarket/hivemarket/internal/publisher"
)

const (
	serviceName = "notification-service"
	serviceID   = "notification-service-1"
	servicePort = 8083
)

func main() {
	cfg := config.Load()

	// Connect to PostgreSQL
	database, err := db.NewPostgresDB(cfg.PostgresHost, cfg.PostgresPort,
		cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Connect to RabbitMQ
	rabbitMQ, err := messaging.NewRabbitMQ(cfg.RabbitHost, cfg.RabbitPort,
		cfg.RabbitUser, cfg.RabbitPassword)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitMQ.Close()

	// Register with Consul
	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort)
	if err != nil {
		log.Fatalf("Failed to connect to Consul: %v", err)
	}
	err = consul.Register(discovery.ServiceConfig{
		Name: serviceName,
		ID:   serviceID,
		Port: servicePort,
		Tags: []string{"api", "notifications"},
	})
	if err != nil {
		log.Fatalf("Failed to register service: %v", err)
	}

	// Deregister on shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		consul.Deregister(serviceID)
		os.Exit(0)
	}()

	notificationRepo := db.NewNotificationRepository(database)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)

	// Start event consumer
	go startEventConsumer(rabbitMQ, notificationRepo)

	// Setup router
	router := gin.Default()

	router.GET("/health", notificationHandler.HealthCheck)
	router.GET("/notifications", notificationHandler.ListNotifications)
	router.POST("/notifications/:id/read", notificationHandler.MarkRead)
	router.POST("/notifications/read-all", notificationHandler.MarkAllRead)

	// Start server
	log.Printf("🚀 %s starting on http://localhost:%d", serviceName, servicePort)
	router.Run(":8083")
}

func startEventConsumer(mq *messaging.RabbitMQ, repo *db.NotificationRepository) {
	if err := mq.DeclareQueue(publisher.NotificationQueue); err != nil {
		log.Fatalf("Failed to declare queue: %v", err)
	}

	messages, err := mq.Consume(publisher.NotificationQueue)
	if err != nil {
		log.Fatalf("Failed to consume messages: %v", err)
	}

	notificationConsumer := consumer.NewNotificationConsumer(repo)
	notificationConsumer.Process(messages)
}
