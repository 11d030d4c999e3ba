package server

import (
	"time"

	"supermarket-pos/internal/handler"
	"supermarket-pos/internal/middleware"
	"supermarket-pos/internal/model"
	"supermarket-pos/internal/repository"
	"supermarket-pos/internal/service"
	"supermarket-pos/internal/ws"
	"supermarket-pos/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const AppName = "Supermarket POS API"

type Options struct {
	DB          *gorm.DB
	Hub         *ws.Hub
	Tokens      *jwt.Manager
	Location    *time.Location
	Log         zerolog.Logger
	Development bool
}

// New wires repositories, services and handlers into a fiber app
func New(opts Options) *fiber.App {
	// Repositories
	categoryRepo := repository.NewCategoryRepo(opts.DB)
	productRepo := repository.NewProductRepo(opts.DB)
	userRepo := repository.NewUserRepo(opts.DB)
	saleRepo := repository.NewSaleRepo(opts.DB)
	reportRepo := repository.NewReportRepo(opts.DB)

	// Services
	var publisher service.EventPublisher
	if opts.Hub != nil {
		publisher = opts.Hub
	}
	authService := service.NewAuthService(userRepo, opts.Tokens)
	userService := service.NewUserService(userRepo)
	categoryService := service.NewCategoryService(categoryRepo, productRepo)
	productService := service.NewProductService(productRepo, categoryRepo, publisher)
	saleService := service.NewSaleService(opts.DB, productRepo, saleRepo, publisher, opts.Location, opts.Log)
	reportService := service.NewReportService(reportRepo, opts.Location)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	productHandler := handler.NewProductHandler(productService)
	saleHandler := handler.NewSaleHandler(saleService, opts.Location)
	reportHandler := handler.NewReportHandler(reportService)
	guard := middleware.NewGuard(authService)

	app := fiber.New(fiber.Config{
		AppName:      AppName,
		ErrorHandler: handler.ErrorHandler(opts.Development, opts.Log),
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(opts.Log))
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "message": AppName + " is running"})
	})

	api := app.Group("/api")

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/profile", guard.Require(), authHandler.Profile)

	// Catalog reads are public, writes are admin only
	adminOnly := guard.Require(model.RoleAdmin)

	categories := api.Group("/categories")
	categories.Get("/", categoryHandler.GetCategories)
	categories.Get("/:id", categoryHandler.GetCategory)
	categories.Post("/", adminOnly, categoryHandler.CreateCategory)
	categories.Put("/:id", adminOnly, categoryHandler.UpdateCategory)
	categories.Delete("/:id", adminOnly, categoryHandler.DeleteCategory)

	products := api.Group("/products")
	products.Get("/", productHandler.GetProducts)
	products.Get("/barcode/:barcode", productHandler.GetProductByBarcode)
	products.Get("/:id", productHandler.GetProduct)
	products.Post("/", adminOnly, productHandler.CreateProduct)
	products.Put("/:id", adminOnly, productHandler.UpdateProduct)
	products.Delete("/:id", adminOnly, productHandler.DeleteProduct)

	// Sales; static paths before /:id
	staff := guard.Require(model.RoleCashier, model.RoleAdmin)
	sales := api.Group("/sales")
	sales.Get("/summary", guard.Require(), reportHandler.GetSummary)
	sales.Get("/my-sales", guard.Require(), saleHandler.GetMySales)
	sales.Post("/", staff, saleHandler.CreateSale)
	sales.Get("/", adminOnly, saleHandler.GetSales)
	sales.Get("/:id", staff, saleHandler.GetSale)

	users := api.Group("/users", adminOnly)
	users.Get("/", userHandler.GetUsers)
	users.Post("/", userHandler.CreateUser)
	users.Get("/:id", userHandler.GetUser)
	users.Put("/:id", userHandler.UpdateUser)
	users.Delete("/:id", userHandler.DeleteUser)
	users.Patch("/:id/toggle-status", userHandler.ToggleUserStatus)

	// WebSocket feed
	if opts.Hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(opts.Hub.Serve))
	}

	app.Use(handler.NotFound)
	return app
}
