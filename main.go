package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pasar/internal/config"
	"pasar/internal/handlers"
	"pasar/internal/idgen"
	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"
	"pasar/pkg/rabbitmq"
	"pasar/pkg/reservations"
)

func main() {
	cfg := config.Load()

	// --- Database ---
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderLine{},
		&models.Payment{},
	); err != nil {
		log.Fatalf("Failed to migrate database schema: %v", err)
	}
	uow := repositories.NewGORMUnitOfWork(db)

	// --- Reservation ledger (Redis) ---
	redisClient := reservations.NewClient(cfg.RedisAddr)
	ledger := reservations.NewRedisLedger(redisClient)

	// --- RabbitMQ ---
	mqClient, err := rabbitmq.NewClient(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
	}
	defer mqClient.Close()

	// --- Services ---
	authService := services.NewAuthService(uow, cfg.JWTSecret, cfg.TokenTTL)
	productService := services.NewProductService(uow)
	orderService := services.NewOrderService(uow, ledger, mqClient,
		idgen.NewOrderNumberGenerator(idgen.NewSource()), cfg.ReservationTTL)
	paymentService := services.NewPaymentService(uow, ledger, mqClient,
		idgen.NewPaymentUIDGenerator())

	app := buildApp(authService, productService, orderService, paymentService)

	// --- Reservation expiry reactor ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reactor := reservations.NewReactor(redisClient, orderService.HandleReservationExpired)
	go func() {
		if err := reactor.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("Reservation reactor stopped: %v", err)
		}
	}()

	// --- Notification consumer ---
	if err := mqClient.ConsumeNotifications(); err != nil {
		log.Printf("Failed to start notification consumer: %v", err)
	}

	// --- HTTP server with graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", cfg.AppPort)
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	cancel()
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// buildApp assembles the Fiber application from the services. Kept apart
// from main so tests can exercise the full HTTP surface against in-memory
// dependencies.
func buildApp(
	authService *services.AuthService,
	productService *services.ProductService,
	orderService *services.OrderService,
	paymentService *services.PaymentService,
) *fiber.App {
	app := fiber.New()
	app.Use(logger.New())

	validate := validator.New()
	authRequired := middleware.AuthRequired(authService)
	adminOnly := middleware.AdminOnly()

	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService, validate).RegisterRoutes(apiV1)
	handlers.NewProductHandler(productService, validate).RegisterRoutes(apiV1, authRequired, adminOnly)
	handlers.NewOrderHandler(orderService, validate).RegisterRoutes(apiV1, authRequired, adminOnly)
	handlers.NewPaymentHandler(paymentService, validate).RegisterRoutes(apiV1, authRequired, adminOnly)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	return app
}
