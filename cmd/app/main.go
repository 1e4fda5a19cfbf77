package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/cart"
	"github.com/wichananm65/jewel-shop-backend/internal/catalog"
	"github.com/wichananm65/jewel-shop-backend/internal/category"
	"github.com/wichananm65/jewel-shop-backend/internal/config"
	"github.com/wichananm65/jewel-shop-backend/internal/confirm"
	"github.com/wichananm65/jewel-shop-backend/internal/database"
	"github.com/wichananm65/jewel-shop-backend/internal/lock"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"github.com/wichananm65/jewel-shop-backend/internal/metrics"
	"github.com/wichananm65/jewel-shop-backend/internal/notify"
	"github.com/wichananm65/jewel-shop-backend/internal/order"
	"github.com/wichananm65/jewel-shop-backend/internal/product"
	"github.com/wichananm65/jewel-shop-backend/internal/receipt"
	"github.com/wichananm65/jewel-shop-backend/internal/redis"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
	"github.com/wichananm65/jewel-shop-backend/internal/share"
	"github.com/wichananm65/jewel-shop-backend/internal/storage"
	"github.com/wichananm65/jewel-shop-backend/internal/user"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Options{
		ServiceName: "jewel-shop",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		log.Error(ctx, "database connection failed", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db, "up"); err != nil {
			log.Error(ctx, "migrations failed", err)
			os.Exit(1)
		}
	}

	var (
		locks    lock.Keyed         = lock.NewMemory()
		statuses notify.StatusStore = notify.NewMemoryStatusStore()
		tokens   confirm.TokenStore = confirm.NewMemoryTokenStore()
	)
	if cfg.Redis.Enabled() {
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			log.Error(ctx, "redis connection failed", err)
			os.Exit(1)
		}
		defer client.Close()

		redisLocks, err := lock.NewRedis(client, client.Key("lock"), cfg.Redis.LockTTL)
		if err != nil {
			log.Error(ctx, "redis lock setup failed", err)
			os.Exit(1)
		}
		locks = redisLocks
		statuses = notify.NewRedisStatusStore(client, cfg.Notify.StatusTTL, cfg.Notify.Channel)
		tokens = confirm.NewRedisTokenStore(client)
	} else {
		log.Warn(ctx, "redis not configured, locks and confirmation tokens are process local")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	loc, _ := time.LoadLocation(cfg.Notify.TimeZone)
	store := storage.NewDiskStore(cfg.Storage.Root, strings.TrimRight(cfg.Storage.PublicBaseURL, "/")+cfg.Storage.PublicPrefix)
	maxUpload := int64(cfg.Storage.MaxUploadMB) << 20

	productRepo := product.NewPostgresRepository(db)
	categoryService := category.NewService(category.NewPostgresRepository(db), productRepo, store, log)
	productService := product.NewService(productRepo, categoryService, store, log)
	catalogService := catalog.NewService(categoryService, productRepo, log)
	cartService := cart.NewService(cart.NewPostgresRepository(db), productRepo, locks, log, m)
	userService := user.NewService(user.NewPostgresRepository(db), log, cfg.Auth.LegacyPhoneLogin)
	shareService := share.NewService(share.NewPostgresRepository(db), userService, log)
	confirmService := confirm.NewService(map[string]confirm.Target{
		confirm.EntityCategories: categoryService,
		confirm.EntityProducts:   productService,
		confirm.EntityUsers:      userService,
	}, tokens, cfg.Auth.ConfirmTTL, log)

	var sender notify.Sender
	if cfg.Twilio.Configured() {
		twilio, err := notify.NewTwilioSender(cfg.Twilio)
		if err != nil {
			log.Error(ctx, "twilio setup failed", err)
			os.Exit(1)
		}
		sender = twilio
	} else {
		log.Warn(ctx, "twilio not configured, order sms will only be logged")
		sender = notify.NewLogSender(log)
	}
	dispatcher := notify.NewDispatcher(
		notify.NewNotifier(sender, cfg.Notify.Recipients, loc, log),
		statuses, cfg.Notify.QueueSize, log, m,
	)
	dispatcher.Subscribe(func(ev notify.Event) {
		log.Info(log.WithFields(context.Background(), map[string]any{"order_id": ev.OrderID, "status": ev.Status}), "order notification settled")
	})

	imageBase := cfg.Storage.PublicBaseURL
	if imageBase == "" {
		imageBase = "http://127.0.0.1:" + cfg.App.Port
	}
	renderer := receipt.NewRenderer(cfg.Receipt.ShopName,
		receipt.NewHTTPFetcher(cfg.Receipt.ImageTimeout, receipt.WithBaseURL(imageBase)), loc, log)

	saga := order.NewSaga(order.NewPostgresRepository(db), cart.NewPostgresRepository(db), productRepo, dispatcher, locks, log, m)
	orderHandler := order.NewHandler(saga, order.NewService(order.NewPostgresRepository(db), log), dispatcher, renderer)
	userHandler := user.NewHandler(userService, session.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL))
	productHandler := product.NewHandler(productService, maxUpload)

	app := fiber.New(fiber.Config{
		BodyLimit:    int(maxUpload) + 1<<20,
		ErrorHandler: apperr.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.App.CORSOrigins, ","),
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(logger.Middleware(log))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "db unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler(reg))
	app.Static(cfg.Storage.PublicPrefix, cfg.Storage.Root)

	userHandler.RegisterPublicRoutes(app)
	catalog.NewHandler(catalogService).RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWT.Secret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return apperr.Respond(c, session.ErrNotAuthenticated)
		},
	}))
	app.Use(session.Refresh(userService))

	userHandler.RegisterProtectedRoutes(app)
	cart.NewHandler(cartService).RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)

	admin := app.Group("/api/v1/admin", session.RequireAdmin())
	category.NewHandler(categoryService, maxUpload).RegisterAdminRoutes(admin)
	productHandler.RegisterAdminRoutes(admin)
	userHandler.RegisterAdminRoutes(admin)
	share.NewHandler(shareService).RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)
	// the confirm routes match /:entity/..., keep them after the fixed paths
	confirm.NewHandler(confirmService).RegisterAdminRoutes(admin)

	// the worker outlives the signal context so Close can drain the queue
	dispatcher.Start(context.Background())

	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Error(ctx, "server stopped", err)
			stop()
		}
	}()
	log.Info(log.WithField(ctx, "port", cfg.App.Port), "jewel shop api listening")

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "http shutdown failed", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "notification queue did not drain", err)
	}
}
