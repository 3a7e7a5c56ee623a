package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hivemarket/hivemarket/internal/client"
	"github.com/hivemarket/hivemarket/internal/config"
	"github.com/hivemarket/hivemarket/internal/db"
	"github.com/hivemarket/hivemarket/internal/discovery"
	"github.com/hivemarket/hivemarket/internal/handlers"
	"github.com/hivemarket/hivemarket/internal/messaging"
	"github.com/hivemarket/hivemarket/internal/pricing"
	"github.com/hivemarket/hivemarket/internal/publisher"
	"github.com/hivemarket/hivemarket/internal/sweeper"
)

const (
	serviceName   = "commerce-service"
	serviceID     = "commerce-service-1"
	servicePort   = 8082
	sweepInterval = time.Minute
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

	notifyPublisher, err := publisher.NewNotifyPublisher(rabbitMQ)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}

	// Register with Consul
	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort)
	if err != nil {
		log.Fatalf("Failed to connect to Consul: %v", err)
	}
	err = consul.Register(discovery.ServiceConfig{
		Name: serviceName,
		ID:   serviceID,
		Port: servicePort,
		Tags: []string{"api", "orders", "groupbuys"},
	})
	if err != nil {
		log.Fatalf("Failed to register service: %v", err)
	}

	// Catalog Reader (HTTP)
	catalog := client.NewCatalogClient(cfg.CatalogServiceURL)
	pricer := pricing.NewEngine(catalog)

	orderRepo := db.NewOrderRepository(database)
	groupBuyRepo := db.NewGroupBuyRepository(database)

	orderHandler := handlers.NewOrderHandler(orderRepo, pricer, notifyPublisher)
	groupBuyHandler := handlers.NewGroupBuyHandler(groupBuyRepo, notifyPublisher)

	// Expiry sweep
	stop := make(chan struct{})
	expirySweeper := sweeper.New(groupBuyRepo, notifyPublisher, sweepInterval)
	go expirySweeper.Run(stop)

	// Deregister on shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		close(stop)
		consul.Deregister(serviceID)
		os.Exit(0)
	}()

	// Setup router
	router := gin.Default()

	router.GET("/health", orderHandler.HealthCheck)

	router.GET("/orders", orderHandler.ListOrders)
	router.GET("/orders/search", orderHandler.SearchOrders)
	router.GET("/orders/statistics", orderHandler.OrderStatistics)
	router.GET("/orders/:id", orderHandler.GetOrder)
	router.POST("/orders", orderHandler.CreateOrder)
	router.PATCH("/orders/:id/status", orderHandler.UpdateOrderStatus)
	router.PATCH("/orders/:id/tracking", orderHandler.AttachTracking)

	router.GET("/groupbuys", groupBuyHandler.ListGroupBuys)
	router.GET("/groupbuys/:id", groupBuyHandler.GetGroupBuy)
	router.GET("/groupbuys/:id/participations", groupBuyHandler.ListParticipations)
	router.POST("/groupbuys", groupBuyHandler.CreateGroupBuy)
	router.POST("/groupbuys/:id/join", groupBuyHandler.JoinGroupBuy)
	router.POST("/groupbuys/:id/leave", groupBuyHandler.LeaveGroupBuy)

	// Start server
	log.Printf("🚀 %s starting on http://localhost:%d", serviceName, servicePort)
	router.Run(":8082")
}
