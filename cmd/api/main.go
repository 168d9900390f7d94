package main

import (
	"context"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/everleepham/bank-antiscam-app/internal/account"
	"github.com/everleepham/bank-antiscam-app/internal/device"
	"github.com/everleepham/bank-antiscam-app/internal/identifier"
	"github.com/everleepham/bank-antiscam-app/internal/policy"
	"github.com/everleepham/bank-antiscam-app/internal/relgraph"
	"github.com/everleepham/bank-antiscam-app/internal/scorestore"
	"github.com/everleepham/bank-antiscam-app/internal/transaction"
	"github.com/everleepham/bank-antiscam-app/internal/trust"
	"github.com/everleepham/bank-antiscam-app/pkg/common"
	"github.com/everleepham/bank-antiscam-app/pkg/config"
	"github.com/everleepham/bank-antiscam-app/pkg/database"
	"github.com/everleepham/bank-antiscam-app/pkg/graph"
	"github.com/everleepham/bank-antiscam-app/pkg/logger"
	"github.com/everleepham/bank-antiscam-app/pkg/middleware"
	"github.com/everleepham/bank-antiscam-app/pkg/redis"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load("antiscam-api")
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := database.RunMigrations(&cfg.Database); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to postgres")

	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	logger.Info("connected to redis")

	ctx := context.Background()
	graphClient, err := graph.NewNeo4jClient(ctx, &cfg.Graph)
	if err != nil {
		logger.Fatal("failed to connect to neo4j", zap.Error(err))
	}
	defer func() { _ = graphClient.Close(ctx) }()
	logger.Info("connected to neo4j")

	// repositories
	accountRepo := account.NewRepository(db)
	txnRepo := transaction.NewRepository(db)
	deviceRepo := device.NewRepository(db)
	graphRepo := relgraph.NewRepository(graphClient)
	issuer := identifier.NewIssuer(db)

	// engines
	scoreTTL := time.Duration(cfg.Trust.ScoreTTLSeconds) * time.Second
	scores := scorestore.NewStore(redisClient.Client, accountRepo, scoreTTL)
	cycles := relgraph.NewCycleDetector(graphRepo,
		cfg.Trust.CycleMaxHops,
		time.Duration(cfg.Trust.CycleWindowMinutes)*time.Minute)
	trustEngine := trust.NewEngine(accountRepo, txnRepo, deviceRepo, graphRepo, cycles, scores)
	policyEngine := policy.NewEngine(txnRepo, trustEngine, policy.DefaultTiers())

	// services and handlers
	accountService := account.NewService(accountRepo, deviceRepo, graphRepo, issuer,
		policyEngine, trustEngine, policyEngine, cfg.JWT, cfg.Trust)
	accountHandler := account.NewHandler(accountService)
	txnService := transaction.NewService(txnRepo, accountRepo, issuer, graphRepo,
		policyEngine, trustEngine)
	txnHandler := transaction.NewHandler(txnService)
	trustHandler := trust.NewHandler(trustEngine)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(cfg.Server.ServiceName))
	router.Use(middleware.SecurityHeaders())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", common.HealthCheckWithDeps(cfg.Server.ServiceName, version, map[string]func() error{
		"postgres": func() error { return db.Ping(context.Background()) },
		"redis":    func() error { return redisClient.Ping(context.Background()).Err() },
		"neo4j":    func() error { return graphClient.VerifyConnectivity(context.Background()) },
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/accounts/register", accountHandler.Register)
		api.POST("/accounts/login", accountHandler.Login)

		authed := api.Group("", middleware.AuthMiddleware(cfg.JWT.Secret))
		{
			authed.GET("/accounts/:id/score", accountHandler.GetScore)
			authed.POST("/transactions", txnHandler.Transfer)
			authed.GET("/transactions", txnHandler.List)
			authed.POST("/transactions/:id/verify", txnHandler.Verify)
			authed.GET("/transactions/suspicious", txnHandler.ListSuspicious)
			authed.POST("/trust/evaluate", trustHandler.Evaluate)
			authed.GET("/trust/:id/score", trustHandler.Score)
		}
	}

	addr := ":" + cfg.Server.Port
	logger.Info("antiscam api listening", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
