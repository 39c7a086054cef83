package main

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"

	"github.com/vetra-app/vetra/internal/admin"
	"github.com/vetra-app/vetra/internal/alerts"
	"github.com/vetra-app/vetra/internal/auth"
	"github.com/vetra-app/vetra/internal/billing"
	"github.com/vetra-app/vetra/internal/catalog"
	"github.com/vetra-app/vetra/internal/config"
	"github.com/vetra-app/vetra/internal/db"
	"github.com/vetra-app/vetra/internal/dispatch"
	"github.com/vetra-app/vetra/internal/generation"
	mware "github.com/vetra-app/vetra/internal/middleware"
	"github.com/vetra-app/vetra/internal/moderation"
	"github.com/vetra-app/vetra/internal/orders"
	"github.com/vetra-app/vetra/internal/realtime"
	"github.com/vetra-app/vetra/internal/settings"
	"github.com/vetra-app/vetra/internal/shop"
	"github.com/vetra-app/vetra/internal/storage"
	"github.com/vetra-app/vetra/internal/user"
	"github.com/vetra-app/vetra/internal/wardrobe"
)

func main() {
	config.Load()
	db.Init()
	alerts.Init()
	defer alerts.Close()

	// Realtime layer: one hub per process, all fan-out goes through the
	// dispatcher.
	hub := realtime.NewHub()
	dispatcher := dispatch.New(hub)

	uploadsRoot := config.Get("UPLOADS_DIR", "./uploads")
	media := storage.NewDiskStore(uploadsRoot)

	mail := alerts.Notifier{}

	settingsStore := settings.NewStore(db.Conn)
	productStore := catalog.NewStore(db.Conn)
	productSvc := catalog.NewService(productStore, media, dispatcher, mail)

	orderStore := orders.NewStore(db.Conn)

	moderationStore := moderation.NewStore(db.Conn)
	moderationSvc := moderation.NewService(moderationStore, productStore, settingsStore, dispatcher, mail)

	generationStore := generation.NewStore(db.Conn)
	wardrobeStore := wardrobe.NewStore(db.Conn)
	wardrobeSvc := wardrobe.NewService(wardrobeStore, productStore, generationStore, media, mail)
	generationSvc := generation.NewService(generationStore, productStore, wardrobeStore,
		generation.NewHTTPGenerator(), dispatcher, settingsStore, media, mail)

	e := echo.New()
	e.Use(emw.Recover())
	e.Use(emw.Logger())

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "vetra"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Uploaded media
	e.Static("/uploads", uploadsRoot)

	// Websocket endpoints: auth rides in the token query param because
	// browsers cannot set headers on websocket upgrades.
	e.GET("/ws/:class", realtime.ServeWS(hub))
	e.GET("/ws/stats", realtime.StatsHandler(hub))

	// Public routes
	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(emw.RateLimiter(emw.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)
	authGroup.POST("/bootstrap-admin", auth.BootstrapAdmin)

	e.GET("/user/:id/profile", user.GetPublicProfile)
	e.GET("/shops/:id", shop.GetShop)
	e.GET("/products", catalog.ListProducts(productStore))
	e.GET("/products/:id", catalog.GetProduct(productStore))

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTMiddleware)

	api.GET("/auth/me", auth.Me)
	api.PATCH("/user/profile", user.UpdateProfile)

	api.POST("/shops", shop.Register)
	api.GET("/shop/balance", billing.Balance, mware.RequireShop)
	api.GET("/shop/transactions", billing.TransactionsHandler, mware.RequireShop)
	api.POST("/shop/topup", billing.TopupInit, mware.RequireShop)
	api.POST("/shop/topup/confirm", billing.ConfirmTopup(dispatcher), mware.RequireShop)

	api.POST("/shop/products", catalog.CreateProduct(productStore, dispatcher), mware.RequireShop)
	api.GET("/shop/products", catalog.ListMyProducts(productStore), mware.RequireShop)
	api.PATCH("/shop/products/:id", catalog.UpdateProduct(productStore, dispatcher), mware.RequireShop)
	api.DELETE("/shop/products/:id", catalog.DeleteProduct(productSvc), mware.RequireShop)

	api.GET("/wardrobe", wardrobe.ListItems(wardrobeStore))
	api.GET("/wardrobe/folders", wardrobe.ListFolders(wardrobeStore))
	api.GET("/wardrobe/stats", wardrobe.GetStats(wardrobeStore))
	api.GET("/wardrobe/:id", wardrobe.GetItem(wardrobeStore))
	api.POST("/wardrobe/from-product", wardrobe.CopyFromProduct(wardrobeSvc))
	api.POST("/wardrobe/from-generation", wardrobe.SaveGeneration(wardrobeSvc))
	api.POST("/wardrobe/upload", wardrobe.UploadItem(wardrobeSvc))
	api.PATCH("/wardrobe/:id", wardrobe.UpdateItem(wardrobeStore))
	api.DELETE("/wardrobe/:id", wardrobe.DeleteItem(wardrobeSvc))

	api.POST("/orders", orders.CreateOrder(orderStore, dispatcher))
	api.GET("/orders", orders.ListMyOrders(orderStore))
	api.GET("/orders/:id", orders.GetOrder(orderStore))
	api.POST("/orders/:id/confirm", orders.ConfirmOrder(orderStore, settingsStore, dispatcher))

	api.POST("/generations", generation.CreateGeneration(generationSvc))
	api.GET("/generations", generation.ListGenerations(generationStore))
	api.GET("/generations/:id", generation.GetGeneration(generationStore))
	api.DELETE("/generations/:id", generation.DeleteGeneration(generationSvc))

	// Admin routes
	adm := e.Group("/admin")
	adm.Use(mware.JWTMiddleware)
	adm.Use(mware.RequireRoles("admin"))

	adm.GET("/stats", admin.Stats)
	adm.GET("/users", admin.ListUsers)
	adm.POST("/users/:id/suspend", admin.SuspendUser(hub))
	adm.POST("/users/:id/activate", admin.ActivateUser)
	adm.GET("/transactions", billing.AdminTransactions)

	adm.GET("/products", admin.SearchProducts(productStore))
	adm.GET("/moderation/queue", moderation.ListQueue(productStore))
	adm.POST("/products/:id/approve", moderation.ApproveProduct(moderationSvc))
	adm.POST("/products/:id/reject", moderation.RejectProduct(moderationSvc))
	adm.POST("/products/bulk-approve", moderation.BulkApprove(moderationSvc))
	adm.POST("/products/bulk-reject", moderation.BulkReject(moderationSvc))
	adm.PUT("/settings/:key", settings.UpdateHandler(settingsStore, dispatcher))

	port := config.Get("PORT", "8080")
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
