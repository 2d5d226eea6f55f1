package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetdesk/internal/config"
	"fleetdesk/internal/handlers"
	"fleetdesk/internal/middleware"
	"fleetdesk/internal/repositories/firestore"
	"fleetdesk/internal/repositories/interfaces"
	"fleetdesk/internal/repositories/memory"
	"fleetdesk/internal/repositories/mongodb"
	"fleetdesk/internal/services"
	"fleetdesk/pkg/cache"
	"fleetdesk/pkg/database"
	"fleetdesk/pkg/logger"
	"fleetdesk/pkg/maps"
	"fleetdesk/pkg/messaging"
	"fleetdesk/pkg/push"
	"fleetdesk/pkg/storage"
	"fleetdesk/pkg/websocket"
	"fleetdesk/routes"

	"github.com/gin-gonic/gin"
)

// routeLockWait bounds how long a request waits for another instance to
// release a route.
const routeLockWait = 2 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  "stdout",
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var firebase *database.Firebase

	store, err := openStore(ctx, cfg, appLogger, &firebase)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to open resource store")
	}
	defer store.Close()

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedisCache(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisCache.Close()
	}

	// Realtime hub, fanned out through Redis when several instances run
	hub := websocket.NewHub(appLogger, cfg.WebSocket.AllowedOrigins)
	go hub.Run(ctx)

	var publisher services.RealtimePublisher
	var locker services.RouteLocker
	if redisCache != nil {
		publisher = services.NewRedisPublisher(redisCache)
		locker = services.NewRedisRouteLocker(redisCache, cfg.Redis.RouteLockTTL, routeLockWait, appLogger)
		go hub.Relay(ctx, redisCache.Subscribe(ctx, websocket.RelayChannel))
	} else {
		publisher = services.NewHubPublisher(hub)
	}

	whatsapp, err := newMessagingProvider(ctx, cfg.Messaging)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize messaging")
	}

	pushProvider, err := newPushProvider(ctx, cfg, &firebase)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize push notifications")
	}

	photoStorage, err := newStorageProvider(ctx, cfg.Storage)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize photo storage")
	}

	var distance maps.DistanceProvider
	if cfg.Maps.GoogleMaps.APIKey != "" {
		distance, err = maps.NewGoogleMapsProvider(cfg.Maps.GoogleMaps.APIKey)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize Google Maps")
		}
	}

	// Services
	notifier := services.NewNotificationEmitter(services.NotificationEmitterConfig{
		Store:     store,
		Publisher: publisher,
		Push:      pushProvider,
		WhatsApp:  whatsapp,
		Templates: cfg.Messaging.Templates,
		Cache:     redisCache,
		Logger:    appLogger,
	})
	safetyService := services.NewSafetyInspectionService(store, cfg.Safety.Checklist, notifier, appLogger)
	routeService := services.NewRouteLifecycleService(services.RouteLifecycleConfig{
		Store:    store,
		Safety:   safetyService,
		Notifier: notifier,
		Distance: distance,
		Locker:   locker,
		Logger:   appLogger,
	})
	fleetService := services.NewFleetService(store, notifier, appLogger)
	podService := services.NewPODPhotoService(routeService, photoStorage, cfg.Storage.MaxPhotoSize, appLogger)

	// Handlers
	routeHandler := handlers.NewRouteHandler(routeService, podService, appLogger)
	fleetHandler := handlers.NewFleetHandler(fleetService, appLogger)
	safetyHandler := handlers.NewSafetyHandler(safetyService, appLogger)
	notificationHandler := handlers.NewNotificationHandler(notifier, appLogger)
	realtimeHandler := handlers.NewRealtimeHandler(hub, store, appLogger)
	healthHandler := handlers.NewHealthHandler(cfg, store, redisCache)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		appLogger.WithError(err).Fatal("Invalid trusted proxies")
	}

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	router.GET("/health", healthHandler.Health)
	if cfg.Storage.Provider == "local" {
		router.Static("/uploads", cfg.Storage.Local.BasePath)
	}

	// API routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.OrganizationScope(cfg.Security.JWTSecret, cfg.Security.AllowHeaderScope))
	{
		routes.SetupRouteRoutes(v1, routeHandler)
		routes.SetupFleetRoutes(v1, fleetHandler)
		routes.SetupSafetyRoutes(v1, safetyHandler)
		routes.SetupNotificationRoutes(v1, notificationHandler)
		routes.SetupRealtimeRoutes(v1, cfg.WebSocket.Path, realtimeHandler)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(map[string]interface{}{
			"addr":  server.Addr,
			"store": cfg.Store.Provider,
		}).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTTL)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Graceful shutdown failed")
	}
}

// openStore connects the configured backend. A Firestore store leaves its
// Firebase app in fb for FCM to reuse.
func openStore(ctx context.Context, cfg *config.Config, appLogger *logger.Logger, fb **database.Firebase) (interfaces.ResourceStore, error) {
	switch cfg.Store.Provider {
	case "firestore":
		app, err := database.NewFirebase(ctx, &database.FirebaseConfig{
			ProjectID:       cfg.Store.Firestore.ProjectID,
			CredentialsFile: cfg.Store.Firestore.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		*fb = app
		return firestore.NewStore(app.Firestore), nil

	case "mongodb":
		mongoCfg := cfg.Store.MongoDB
		db, err := database.NewMongoDB(&database.MongoConfig{
			URI:            mongoCfg.URI,
			Database:       mongoCfg.Database,
			MaxPoolSize:    mongoCfg.MaxPoolSize,
			MinPoolSize:    mongoCfg.MinPoolSize,
			ConnectTimeout: mongoCfg.ConnectTimeout,
			SocketTimeout:  mongoCfg.SocketTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		if mongoCfg.RunMigrations {
			if err := database.NewMigrator(db.Database, appLogger).Up(ctx); err != nil {
				return nil, err
			}
		}
		return mongodb.NewStore(db), nil

	case "memory", "":
		appLogger.Warn("Using the in-memory store; data is lost on restart")
		return memory.NewStore(), nil

	default:
		return nil, fmt.Errorf("unknown store provider %q", cfg.Store.Provider)
	}
}

func newMessagingProvider(ctx context.Context, cfg *config.MessagingConfig) (messaging.Provider, error) {
	switch cfg.Provider {
	case "twilio":
		return messaging.NewTwilioWhatsAppProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.WhatsAppFrom), nil
	case "sns":
		return messaging.NewAWSSNSProvider(ctx, cfg.AWS.Region)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown messaging provider %q", cfg.Provider)
	}
}

func newPushProvider(ctx context.Context, cfg *config.Config, fb **database.Firebase) (push.PushProvider, error) {
	router := &push.Router{}

	switch cfg.Push.Provider {
	case "none", "":
		return nil, nil
	case "fcm", "apns":
	default:
		return nil, fmt.Errorf("unknown push provider %q", cfg.Push.Provider)
	}

	if cfg.Push.FCM.ProjectID != "" || *fb != nil {
		if *fb == nil {
			app, err := database.NewFirebase(ctx, &database.FirebaseConfig{
				ProjectID:       cfg.Push.FCM.ProjectID,
				CredentialsFile: cfg.Push.FCM.Credentials,
			})
			if err != nil {
				return nil, err
			}
			*fb = app
		}
		fcm, err := push.NewFCMProvider(ctx, (*fb).App)
		if err != nil {
			return nil, err
		}
		router.Android = fcm
	}

	if cfg.Push.Provider == "apns" {
		apns, err := push.NewAPNSProvider(cfg.Push.APNS.KeyFile, cfg.Push.APNS.KeyID, cfg.Push.APNS.TeamID, cfg.Push.APNS.BundleID, cfg.Push.APNS.Production)
		if err != nil {
			return nil, err
		}
		router.IOS = apns
	}

	return router, nil
}

func newStorageProvider(ctx context.Context, cfg *config.StorageConfig) (storage.StorageProvider, error) {
	switch cfg.Provider {
	case "s3":
		return storage.NewAWSS3Storage(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.CDNDomain)
	case "gcs":
		return storage.NewGCPStorage(ctx, cfg.GCP.Bucket, cfg.GCP.CredentialsFile, cfg.GCP.CDNDomain)
	case "local", "":
		return storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
