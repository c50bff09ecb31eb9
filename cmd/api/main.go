package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-envoi-inventory/internal/handler"
	"go-envoi-inventory/internal/middleware"
	"go-envoi-inventory/internal/model"
	"go-envoi-inventory/internal/repository"
	"go-envoi-inventory/internal/service"
	"go-envoi-inventory/internal/ws"
	"go-envoi-inventory/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	db.AutoMigrate(
		&model.User{},
		&model.Envoi{},
		&model.Produit{},
		&model.Stock{},
		&model.Transaction{},
		&model.TauxChange{},
		&model.Dette{},
		&model.AuditEvent{},
	)

	// 3. Seed admin user
	seedAdmin(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	userRepo := repository.NewUserRepo(db)
	envoiRepo := repository.NewEnvoiRepo(db)
	produitRepo := repository.NewProduitRepo(db)
	stockRepo := repository.NewStockRepo(db)
	transactionRepo := repository.NewTransactionRepo(db)
	detteRepo := repository.NewDetteRepo(db)
	tauxRepo := repository.NewTauxRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	auditService := service.NewAuditService(auditRepo, wsHub)
	authService := service.NewAuthService(userRepo, auditService)
	stockService := service.NewStockService(produitRepo, stockRepo, transactionRepo, detteRepo, tauxRepo, auditService, db)
	produitService := service.NewProduitService(produitRepo, envoiRepo, stockService, auditService, db)
	envoiService := service.NewEnvoiService(envoiRepo, auditService, db)
	tauxService := service.NewTauxService(tauxRepo, auditService)
	reportService := service.NewReportService(produitRepo, transactionRepo, detteRepo, tauxService, envoiRepo)

	authHandler := handler.NewAuthHandler(authService)
	envoiHandler := handler.NewEnvoiHandler(envoiService)
	produitHandler := handler.NewProduitHandler(produitService, stockService)
	transactionHandler := handler.NewTransactionHandler(stockService, produitService, transactionRepo)
	detteHandler := handler.NewDetteHandler(stockService, produitService, detteRepo)
	tauxHandler := handler.NewTauxHandler(tauxService)
	reportHandler := handler.NewReportHandler(reportService)
	auditHandler := handler.NewAuditHandler(auditService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Envoi Inventory v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.ClientCount()})
	})

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	protected.Get("/me", authHandler.Me)

	// Envoi Routes (mutations are admin-only)
	protected.Get("/envois", envoiHandler.List)
	protected.Get("/envois/:id", envoiHandler.Get)
	protected.Post("/envois", middleware.RequireAdmin(), envoiHandler.Create)
	protected.Put("/envois/:id", middleware.RequireAdmin(), envoiHandler.Update)
	protected.Delete("/envois/:id/purge", middleware.RequireAdmin(), envoiHandler.Purge)
	protected.Delete("/envois/:id", middleware.RequireAdmin(), envoiHandler.Delete)

	// Produit Routes
	protected.Get("/produits", produitHandler.List)
	protected.Get("/produits/categories", produitHandler.Categories)
	protected.Get("/produits/:id", produitHandler.Get)
	protected.Get("/produits/:id/stock", produitHandler.Stock)
	protected.Post("/produits", produitHandler.Create)
	protected.Put("/produits/:id", produitHandler.Update)
	protected.Delete("/produits/:id", produitHandler.Delete)

	// Derived stock rows (read-only)
	protected.Get("/stocks", produitHandler.Stocks)

	// Transaction Routes
	protected.Get("/transactions", transactionHandler.List)
	protected.Get("/transactions/:id", transactionHandler.Get)
	protected.Post("/transactions", transactionHandler.Create)
	protected.Delete("/transactions/:id", transactionHandler.Delete)

	// Dette Routes
	protected.Get("/dettes", detteHandler.List)
	protected.Get("/dettes/:id", detteHandler.Get)
	protected.Post("/dettes", detteHandler.Create)
	protected.Put("/dettes/:id", detteHandler.Update)
	protected.Post("/dettes/:id/settle", detteHandler.Settle)
	protected.Post("/dettes/:id/reopen", detteHandler.Reopen)
	protected.Delete("/dettes/:id", detteHandler.Delete)

	// Taux Routes
	protected.Get("/taux", tauxHandler.List)
	protected.Get("/taux/current", tauxHandler.Current)
	protected.Post("/taux", tauxHandler.Create)
	protected.Delete("/taux/:id", middleware.RequireAdmin(), tauxHandler.Delete)

	// Report Routes
	protected.Get("/reports/stock", reportHandler.StockReport)
	protected.Get("/reports/monthly", reportHandler.MonthlyReport)

	// Audit trail (admin-only)
	protected.Get("/audit", middleware.RequireAdmin(), auditHandler.List)

	// WebSocket Route
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

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedAdmin creates the default admin user if it doesn't exist
func seedAdmin(db *gorm.DB) {
	userRepo := repository.NewUserRepo(db)

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@example.com"
	}

	if _, err := userRepo.FindByEmail(email); err == nil {
		return
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}

	admin := &model.User{
		Email:    email,
		FullName: "Administrator",
		IsAdmin:  true,
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"

	if err := admin.SetPassword(password); err != nil {
		log.Printf("Warning: Failed to hash admin password: %v", err)
		return
	}
	if err := userRepo.Create(admin); err != nil {
		log.Printf("Warning: Failed to create admin user: %v", err)
		return
	}
	log.Printf("✅ Admin user created: %s", email)
}
