package main

import (
	"context"
	"fmt"
	"net/http"

	"lifeline/internal/config"
	"lifeline/internal/consumer"
	"lifeline/internal/handlers"
	"lifeline/internal/middleware"
	"lifeline/internal/models"
	"lifeline/internal/repositories/memory"
	"lifeline/internal/repositories/mongodb"
	"lifeline/internal/services"
	"lifeline/pkg/cache"
	"lifeline/pkg/database"
	"lifeline/pkg/logger"
	"lifeline/pkg/mqtt"
	"lifeline/pkg/notify"
	"lifeline/pkg/push"
	"lifeline/pkg/scheduler"
	"lifeline/pkg/sms"
	"lifeline/pkg/websocket"
	"lifeline/routes"

	"github.com/gin-gonic/gin"
	"github.com/zoobzio/clockz"
)

// application owns every long-lived resource of the process.
type application struct {
	router    *gin.Engine
	closers   []func()
	scheduler *scheduler.Scheduler
	contacts  *services.ContactNotifier
}

func (a *application) close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.contacts.Wait()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func bootstrap(ctx context.Context, cfg *config.Config, log *logger.Logger) (*application, error) {
	app := &application{}
	deps := services.Dependencies{
		Clock:  clockz.RealClock,
		Logger: log,
		Audit:  logger.NewAuditLoggerFrom(log),
		Config: cfg.Dispatch,
	}

	if err := app.storage(ctx, cfg, log, &deps); err != nil {
		app.close()
		return nil, err
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		var err error
		redisCache, err = cache.NewRedisCache(ctx, &cache.RedisConfig{
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
			app.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.closers = append(app.closers, func() { redisCache.Close() })
		deps.Guard = services.NewRedisRoundGuard(redisCache)
	}

	hub := websocket.NewHub(log.WithField("component", "hub").Entry())
	go hub.Run(ctx)
	local := notify.NewHubBus(hub)

	var fanout notify.Bus = local
	if redisCache != nil {
		relay := notify.NewRedisBus(redisCache, cfg.Redis.EventsChannel, log.Entry())
		go func() {
			if err := relay.Relay(ctx, local); err != nil {
				log.WithError(err).Error("Redis relay stopped")
			}
		}()
		fanout = relay
	}

	providers, err := pushProviders(ctx, cfg.Push)
	if err != nil {
		app.close()
		return nil, err
	}
	deps.Bus = notify.NewPushBus(fanout, providers, services.DeviceTargets(deps.Drivers, deps.Hospitals), log.Entry())

	provider, err := smsProvider(ctx, cfg.SMS)
	if err != nil {
		app.close()
		return nil, err
	}
	deps.Contacts = services.NewContactNotifier(provider, log.WithField("component", "contacts"))
	deps.Scheduler = scheduler.New(deps.Clock, log.WithField("component", "scheduler").Entry())
	app.scheduler = deps.Scheduler
	app.contacts = deps.Contacts

	svc, err := services.New(deps)
	if err != nil {
		app.close()
		return nil, err
	}

	if cfg.MQTT.Enabled {
		client, err := mqtt.NewClient(ctx, &mqtt.Config{
			Broker:         cfg.MQTT.Broker,
			ClientID:       cfg.MQTT.ClientID,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			ConnectTimeout: cfg.MQTT.ConnectTimeout,
		}, log.WithField("component", "mqtt").Entry())
		if err != nil {
			app.close()
			return nil, err
		}
		app.closers = append(app.closers, client.Disconnect)
		if err := consumer.New(svc.Dispatch, cfg.MQTT, log).Register(client); err != nil {
			app.close()
			return nil, err
		}
	}

	app.router = newRouter(ctx, cfg, log, deps.Audit, svc, hub)
	return app, nil
}

func (a *application) storage(ctx context.Context, cfg *config.Config, log *logger.Logger, deps *services.Dependencies) error {
	if cfg.Storage.Driver == config.StorageMemory {
		log.Warn("Using in-memory storage; state is lost on restart")
		store := memory.NewStore()
		deps.Requests = memory.NewEmergencyRequestRepository(store)
		deps.Drivers = memory.NewDriverRepository(store)
		deps.Hospitals = memory.NewHospitalRepository(store)
		deps.Offers = memory.NewOfferRepository(store)
		deps.Geo = memory.NewGeoIndex(store)
		return nil
	}

	mongo, err := database.NewMongoDB(ctx, &database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() { mongo.Close(context.Background()) })

	if cfg.Storage.RunMigrations {
		migrator := database.NewMigrator(mongo.Database, mongodb.Migrations(), log.WithField("component", "migrations").Entry())
		if err := migrator.Up(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	deps.Requests = mongodb.NewEmergencyRequestRepository(mongo.Database)
	deps.Drivers = mongodb.NewDriverRepository(mongo.Database)
	deps.Hospitals = mongodb.NewHospitalRepository(mongo.Database)
	deps.Offers = mongodb.NewOfferRepository(mongo.Database)
	deps.Geo = mongodb.NewGeoIndex(mongo.Database)
	return nil
}

func pushProviders(ctx context.Context, cfg *config.PushConfig) (map[string]push.PushProvider, error) {
	providers := make(map[string]push.PushProvider)
	if !cfg.Enabled {
		return providers, nil
	}

	if cfg.FCM.Credentials != "" {
		fcm, err := push.NewFCMProvider(ctx, cfg.FCM.Credentials)
		if err != nil {
			return nil, err
		}
		providers[string(models.DevicePlatformAndroid)] = fcm
	}
	if cfg.APNS.KeyFile != "" {
		apns, err := push.NewAPNSProvider(cfg.APNS.KeyFile, cfg.APNS.KeyID, cfg.APNS.TeamID, cfg.APNS.BundleID, cfg.APNS.Production)
		if err != nil {
			return nil, err
		}
		providers[string(models.DevicePlatformIOS)] = apns
	}
	return providers, nil
}

func smsProvider(ctx context.Context, cfg *config.SMSConfig) (sms.SMSProvider, error) {
	switch cfg.Provider {
	case config.SMSProviderTwilio:
		return sms.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber), nil
	case config.SMSProviderSNS:
		return sms.NewAWSSNSProvider(ctx, cfg.AWS.Region, cfg.AWS.SenderID)
	}
	return nil, nil
}

func newRouter(ctx context.Context, cfg *config.Config, log *logger.Logger, audit *logger.AuditLogger, svc *services.Services, hub *websocket.Hub) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	if len(cfg.Security.TrustedProxies) > 0 {
		router.SetTrustedProxies(cfg.Security.TrustedProxies)
	}

	secret := cfg.Security.JWTSecret
	v1 := router.Group("/api/v1")
	{
		routes.SetupRoutes(v1, routes.Handlers{
			Auth:     handlers.NewAuthHandler(secret, audit),
			Client:   handlers.NewClientHandler(svc.Dispatch, svc.Offers),
			Driver:   handlers.NewDriverHandler(svc.Dispatch),
			Hospital: handlers.NewHospitalHandler(svc.Offers),
			Device:   handlers.NewDeviceHandler(svc.Dispatch),
		}, middleware.AuthRequired(secret, audit))
	}

	sockets := handlers.NewSocketHandler(svc.Dispatch, secret, log)
	ws := websocket.NewHandler(ctx, hub, websocket.HandlerConfig{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		AllowedOrigins:  cfg.WebSocket.AllowedOrigins,
	}, sockets.Identify, sockets.OnMessage)
	router.GET(cfg.WebSocket.Path, ws.HandleWebSocket)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": cfg.App.Version,
			"sockets": hub.ClientCount(),
		})
	})

	return router
}
