// The pos binary runs the embedded single-terminal deployment: same HTTP
// surface as cmd/api, but backed by the in-process memstore instead of
// Postgres. No login flow; every sale is stamped with a configured seller.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aody34/Darusalaampharmcy/internal/handler"
	"github.com/aody34/Darusalaampharmcy/internal/middleware"
	"github.com/aody34/Darusalaampharmcy/internal/service"
	"github.com/aody34/Darusalaampharmcy/internal/store/memstore"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	store, err := memstore.New(getenv("POS_DATA_FILE", "pharmacy-pos.json"))
	if err != nil {
		log.Fatal("Failed to open data file: ", err)
	}
	defer store.Close()

	reportService := service.NewReportService(store.Inventory(), store.Ledger())

	saleHandler := handler.NewSaleHandler(store, reportService)
	itemHandler := handler.NewItemHandler(store)
	dashHandler := handler.NewDashboardHandler(reportService)

	app := fiber.New(fiber.Config{
		AppName: "Darusalaam Pharmacy POS v1.0",
	})

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api/v1", middleware.StaticSeller(getenv("POS_SELLER_ID", "counter-1")))

	api.Get("/dashboard/stats", dashHandler.GetDashboardStats)

	api.Get("/items", itemHandler.GetItems)
	api.Get("/items/:id", itemHandler.GetItem)
	api.Post("/items", itemHandler.CreateItem)
	api.Put("/items/:id", itemHandler.UpdateItem)
	api.Delete("/items/:id", itemHandler.DeleteItem)

	api.Get("/sales", saleHandler.GetSalesReport)
	api.Post("/sales", saleHandler.CreateSale)
	api.Post("/sales/custom", saleHandler.CreateCustomSale)

	go func() {
		port := getenv("POS_PORT", "3100")
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down POS...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("POS forced to shutdown:", err)
	}
	log.Println("POS exited")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
