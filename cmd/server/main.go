package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/walkin-queue/internal/broker"     // AMQP customer notifications
	"github.com/iliyamo/walkin-queue/internal/config"     // Internal config loader
	"github.com/iliyamo/walkin-queue/internal/database"   // MySQL connection
	"github.com/iliyamo/walkin-queue/internal/engine"     // queue ordering engine
	"github.com/iliyamo/walkin-queue/internal/handler"    // HTTP handlers
	"github.com/iliyamo/walkin-queue/internal/middleware" // rate limit + cache middleware
	"github.com/iliyamo/walkin-queue/internal/realtime"   // Redis pub/sub broadcasts
	"github.com/iliyamo/walkin-queue/internal/repository" // DB repositories
	"github.com/iliyamo/walkin-queue/internal/router"     // route registration
	"github.com/iliyamo/walkin-queue/internal/scheduler"  // daily queue reset
	"github.com/iliyamo/walkin-queue/internal/store"      // engine persistence
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs both the realtime broadcasts and the rate limiter /
	// response cache.  A nil client degrades all three to no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: broadcasts, rate limiting and caching disabled")
	}

	// Repositories for the CRUD surface.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	businesses := repository.NewBusinessRepo(db)
	branches := repository.NewBranchRepo(db)
	queues := repository.NewQueueRepo(db)

	// The ordering engine and its collaborators.
	eng := engine.New(store.New(db), broker.NewNotifier(), realtime.NewPublisher(rdb))

	// Consume customer notifications off the broker in the background.
	go func() {
		if err := broker.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer: %v", err)
		}
	}()

	// Daily midnight cutover of active queues.
	cron := scheduler.Start(eng)
	defer cron.Stop()

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	scope := handler.NewTenancy(branches, businesses, users)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e,
		handler.NewPublicHandler(businesses, branches, queues),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterOwner(e, handler.NewBranchHandler(businesses, branches, users), cfg.JWTSecret)
	router.RegisterQueues(e,
		handler.NewQueueHandler(queues, scope),
		handler.NewQueueOpsHandler(eng, queues, scope),
		handler.NewUserHandler(users),
		cfg.JWTSecret)
	router.RegisterCustomer(e, handler.NewCustomerHandler(eng, queues), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
