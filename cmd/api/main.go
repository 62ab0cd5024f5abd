package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aody34/Darusalaampharmcy/internal/handler"
	"github.com/aody34/Darusalaampharmcy/internal/middleware"
	"github.com/aody34/Darusalaampharmcy/internal/model"
	"github.com/aody34/Darusalaampharmcy/internal/redisx"
	"github.com/aody34/Darusalaampharmcy/internal/repository"
	"github.com/aody34/Darusalaampharmcy/internal/service"
	"github.com/aody34/Darusalaampharmcy/internal/ws"
	"github.com/aody34/Darusalaampharmcy/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	// 1. Load env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup database
	db := database.ConnectDB()
	db.AutoMigrate(&model.Item{}, &model.SaleRecord{}, &model.User{})

	// 3. Seed default admin user
	seedAdmin(db)

	// 4. Optional Redis idempotency cache
	var rdb *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redisx.NewClient(addr)
		log.Println("Redis idempotency cache enabled:", addr)
	}

	// 5. Setup websocket hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 6. Dependency injection (wiring layers)
	itemRepo := repository.NewItemRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	userRepo := repository.NewUserRepo(db)

	salesService := service.NewSalesService(itemRepo, saleRepo, db, rdb, wsHub)
	reportService := service.NewReportService(itemRepo, saleRepo)
	itemService := service.NewItemService(itemRepo, db, wsHub)
	authService := service.NewAuthService(userRepo)

	saleHandler := handler.NewSaleHandler(salesService, reportService)
	itemHandler := handler.NewItemHandler(itemService)
	dashHandler := handler.NewDashboardHandler(reportService)
	authHandler := handler.NewAuthHandler(authService)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Darusalaam Pharmacy API v1.0",
	})

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// 8. Routes
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/validate-token", authHandler.ValidateToken)

	protected := api.Group("", middleware.RequireAuth(userRepo))

	protected.Get("/dashboard/stats", dashHandler.GetDashboardStats)

	protected.Get("/items", itemHandler.GetItems)
	protected.Get("/items/:id", itemHandler.GetItem)
	protected.Post("/items", itemHandler.CreateItem)
	protected.Put("/items/:id", itemHandler.UpdateItem)
	protected.Delete("/items/:id", itemHandler.DeleteItem)

	protected.Get("/sales", saleHandler.GetSalesReport)
	protected.Post("/sales", saleHandler.CreateSale)
	protected.Post("/sales/custom", saleHandler.CreateCustomSale)

	// Websocket route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Graceful shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedAdmin creates the default admin user if none exists yet.
func seedAdmin(db *gorm.DB) {
	userRepo := repository.NewUserRepo(db)

	if _, err := userRepo.FindByEmail("admin@example.com"); err == nil {
		return
	}

	admin := &model.User{
		Email:    "admin@example.com",
		FullName: "Pharmacy Administrator",
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"

	if err := admin.SetPassword("admin123"); err != nil {
		log.Printf("Warning: failed to hash admin password: %v", err)
		return
	}
	if err := userRepo.Create(admin); err != nil {
		log.Printf("Warning: failed to create admin user: %v", err)
		return
	}
	log.Println("Admin user created: admin@example.com / admin123")
}
