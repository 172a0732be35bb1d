package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	catalogv1 "github.com/fekuna/marketplace-catalog-service/api/catalogv1"
	"github.com/fekuna/marketplace-catalog-service/config"
	"github.com/fekuna/marketplace-catalog-service/internal/broker"
	"github.com/fekuna/marketplace-catalog-service/internal/cache"
	"github.com/fekuna/marketplace-catalog-service/internal/database"
	"github.com/fekuna/marketplace-catalog-service/internal/i18n"
	"github.com/fekuna/marketplace-catalog-service/internal/imagestore"
	"github.com/fekuna/marketplace-catalog-service/internal/logger"
	"github.com/fekuna/marketplace-catalog-service/internal/matrix"
	"github.com/fekuna/marketplace-catalog-service/internal/middleware"
	"github.com/fekuna/marketplace-catalog-service/internal/search"

	catH "github.com/fekuna/marketplace-catalog-service/internal/category/handler"
	catRepoPkg "github.com/fekuna/marketplace-catalog-service/internal/category/repository"
	catUCPkg "github.com/fekuna/marketplace-catalog-service/internal/category/usecase"

	invH "github.com/fekuna/marketplace-catalog-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/marketplace-catalog-service/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/marketplace-catalog-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/marketplace-catalog-service/internal/inventory/usecase"

	prodDTO "github.com/fekuna/marketplace-catalog-service/internal/product/dto"
	prodH "github.com/fekuna/marketplace-catalog-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/marketplace-catalog-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/marketplace-catalog-service/internal/product/usecase"

	pcH "github.com/fekuna/marketplace-catalog-service/internal/productcategory/handler"
	pcRepoPkg "github.com/fekuna/marketplace-catalog-service/internal/productcategory/repository"
	pcUCPkg "github.com/fekuna/marketplace-catalog-service/internal/productcategory/usecase"

	varDTO "github.com/fekuna/marketplace-catalog-service/internal/variant/dto"
	varH "github.com/fekuna/marketplace-catalog-service/internal/variant/handler"
	varRepoPkg "github.com/fekuna/marketplace-catalog-service/internal/variant/repository"
	varUCPkg "github.com/fekuna/marketplace-catalog-service/internal/variant/usecase"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	i18n.Init()
	if path := os.Getenv("I18N_EXTRA_LOCALE"); path != "" {
		if err := i18n.Load(path); err != nil {
			log.Printf("Failed to load locale %s: %v", path, err)
		}
	}

	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deletePolicy, err := matrix.ParseDeletePolicy(cfg.Variant.DeletePolicy)
	if err != nil {
		appLogger.Warn("Invalid VARIANT_DELETE_POLICY, using restrict", zap.Error(err))
		deletePolicy = matrix.DeleteRestrict
	}

	// Database
	db, err := database.Open(ctx, &database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		SQLitePath:      cfg.Database.SQLitePath,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to database", zap.String("driver", db.DriverName()))

	applied, err := database.Migrate(ctx, db)
	if err != nil {
		appLogger.Fatal("Could not migrate database", zap.Error(err))
	}
	appLogger.Info("Database migrated", zap.Int("applied", applied))
	txm := database.NewTxManager(db, cfg.Database.LockTimeout)

	// Repositories
	catRepo := catRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	varRepo := varRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	pcRepo := pcRepoPkg.NewPGRepository(db)

	// Redis
	syncOpts := []varUCPkg.Option{}
	prodDeps := prodUCPkg.Deps{Categories: catRepo, ProductCategories: pcRepo, Variants: varRepo}
	var (
		locker        invUCPkg.Locker
		stockCache    invUCPkg.Cache
		categoryCache pcUCPkg.Cache
	)
	redisClient, err := cache.NewRedisClient(ctx, &cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Redis, running without cache and distributed locks", zap.Error(err))
	} else {
		defer redisClient.Close()
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		syncOpts = append(syncOpts, varUCPkg.WithLocker(redisClient), varUCPkg.WithCache(redisClient))
		prodDeps.Cache = redisClient
		locker = redisClient
		stockCache = redisClient
		categoryCache = redisClient
	}

	// Kafka
	producer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.VariantsTopic,
	})
	defer producer.Close()
	syncOpts = append(syncOpts, varUCPkg.WithPublisher(producer))

	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OrdersTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("Kafka configured",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("orders_topic", cfg.Kafka.OrdersTopic),
		zap.String("variants_topic", cfg.Kafka.VariantsTopic),
	)

	// Elasticsearch
	esClient, err := search.NewClient(ctx, &search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch, search falls back to the database", zap.Error(err))
	} else {
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		for index, mapping := range map[string]string{
			varDTO.VariantIndex:  varDTO.VariantIndexMapping,
			prodDTO.ProductIndex: prodDTO.ProductIndexMapping,
		} {
			if err := esClient.CreateIndex(ctx, index, mapping); err != nil {
				appLogger.Warn("Could not create search index", zap.String("index", index), zap.Error(err))
			}
		}
		syncOpts = append(syncOpts, varUCPkg.WithIndexer(esClient))
		prodDeps.Search = esClient
	}

	// Image uploads
	var uploader imagestore.Uploader
	if cfg.Upload.CloudinaryURL != "" {
		cld, err := imagestore.NewCloudinaryUploader(&imagestore.Config{
			URL:     cfg.Upload.CloudinaryURL,
			Timeout: cfg.Upload.Timeout,
		})
		if err != nil {
			appLogger.Warn("Invalid CLOUDINARY_URL, image uploads disabled", zap.Error(err))
		} else {
			uploader = cld
			prodDeps.Uploader = cld
		}
	}

	// UseCases
	syncer := varUCPkg.NewSynchronizer(txm, varRepo, catRepo, varUCPkg.Config{
		MaxCombinations: cfg.Variant.MaxCombinations,
		NameSeparator:   cfg.Variant.NameSeparator,
		DeletePolicy:    deletePolicy,
		LockTTL:         cfg.Variant.LockTTL,
	}, appLogger, syncOpts...)
	varUC := varUCPkg.NewVariantUseCase(txm, varRepo, syncer, uploader, invRepo, appLogger)
	catUC := catUCPkg.NewCategoryUseCase(txm, catRepo, varRepo, syncer, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, db, prodDeps, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(txm, invRepo, locker, stockCache, appLogger)
	pcUC := pcUCPkg.NewCategoryUseCase(pcRepo, categoryCache, appLogger)

	// Listeners
	invListener := invListenerPkg.NewInventoryListener(kafkaConsumer, invUC, appLogger)
	listenerDone := make(chan struct{})
	go func() {
		defer close(listenerDone)
		invListener.Start(ctx)
	}()

	// gRPC server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.ContextInterceptor(),
			middleware.LoggingInterceptor(appLogger),
		),
	)
	catalogv1.RegisterCategoryServiceServer(grpcServer, catH.NewCategoryHandler(catUC, appLogger))
	catalogv1.RegisterVariantServiceServer(grpcServer, varH.NewVariantHandler(varUC, appLogger))
	catalogv1.RegisterProductServiceServer(grpcServer, prodH.NewProductHandler(prodUC, appLogger))
	catalogv1.RegisterInventoryServiceServer(grpcServer, invH.NewInventoryHandler(invUC, appLogger))
	catalogv1.RegisterProductCategoryServiceServer(grpcServer, pcH.NewCategoryHandler(pcUC, appLogger))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	cancel()
	<-listenerDone
	syncer.Wait()
	prodUC.Wait()
	appLogger.Info("Server stopped")
}
