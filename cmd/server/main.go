package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LIGAWA25471/Villadelsolrms/config"
	"github.com/LIGAWA25471/Villadelsolrms/internal/api"
	"github.com/LIGAWA25471/Villadelsolrms/internal/broker"
	"github.com/LIGAWA25471/Villadelsolrms/internal/realtime"
	"github.com/LIGAWA25471/Villadelsolrms/internal/redisclient"
	"github.com/LIGAWA25471/Villadelsolrms/internal/service"
	"github.com/LIGAWA25471/Villadelsolrms/internal/store"
	"github.com/LIGAWA25471/Villadelsolrms/internal/util"
	"github.com/LIGAWA25471/Villadelsolrms/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting restaurant backend")

	tp, err := util.InitTracer("rms-backend", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	hub := realtime.NewHub()
	instanceID := uuid.New().String()

	var producer *broker.Producer
	if cfg.Kafka.Enabled {
		producer = broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		defer producer.Close()
		log.Println("Kafka producer initialized")
	}

	publisher := broker.NewPublisher(hub, producer, instanceID)

	menuClient := service.NewMenuClient(db, redisClient)
	orderService := service.NewOrderService(db, menuClient, redisClient, publisher, cfg.Business.TaxRate)
	kitchenService := service.NewKitchenService(db, publisher)
	paymentService := service.NewPaymentService(db, orderService, publisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var relay *worker.EventRelay
	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup+"-"+instanceID)
		relay = worker.NewEventRelay(consumer, hub, instanceID)
		go func() {
			if err := relay.Start(workerCtx); err != nil {
				log.Printf("Event relay error: %v", err)
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(orderService, kitchenService, paymentService, hub)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	if relay != nil {
		relay.Stop()
	}

	log.Println("Server exited")
}
