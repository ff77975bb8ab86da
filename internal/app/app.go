// Package app assembles the stores, services and HTTP router from config.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medibook-api/internal/config"
	"github.com/jwalitptl/medibook-api/internal/email"
	adminHandler "github.com/jwalitptl/medibook-api/internal/handler/admin"
	appointmentHandler "github.com/jwalitptl/medibook-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/medibook-api/internal/handler/auth"
	bookingHandler "github.com/jwalitptl/medibook-api/internal/handler/booking"
	doctorHandler "github.com/jwalitptl/medibook-api/internal/handler/doctor"
	"github.com/jwalitptl/medibook-api/internal/handler/health"
	patientHandler "github.com/jwalitptl/medibook-api/internal/handler/patient"
	reviewHandler "github.com/jwalitptl/medibook-api/internal/handler/review"
	"github.com/jwalitptl/medibook-api/internal/middleware"
	"github.com/jwalitptl/medibook-api/internal/model"
	"github.com/jwalitptl/medibook-api/internal/repository"
	"github.com/jwalitptl/medibook-api/internal/repository/memory"
	"github.com/jwalitptl/medibook-api/internal/repository/mongo"
	"github.com/jwalitptl/medibook-api/internal/repository/postgres"
	redisRepo "github.com/jwalitptl/medibook-api/internal/repository/redis"
	"github.com/jwalitptl/medibook-api/internal/router"
	"github.com/jwalitptl/medibook-api/internal/service/account"
	"github.com/jwalitptl/medibook-api/internal/service/admin"
	"github.com/jwalitptl/medibook-api/internal/service/appointment"
	authService "github.com/jwalitptl/medibook-api/internal/service/auth"
	"github.com/jwalitptl/medibook-api/internal/service/doctor"
	"github.com/jwalitptl/medibook-api/internal/service/notification"
	"github.com/jwalitptl/medibook-api/internal/service/patient"
	paymentService "github.com/jwalitptl/medibook-api/internal/service/payment"
	"github.com/jwalitptl/medibook-api/internal/service/review"
	"github.com/jwalitptl/medibook-api/internal/sms"
	"github.com/jwalitptl/medibook-api/internal/storage"
	"github.com/jwalitptl/medibook-api/pkg/auth"
	"github.com/jwalitptl/medibook-api/pkg/messaging"
	redisBroker "github.com/jwalitptl/medibook-api/pkg/messaging/redis"
	"github.com/jwalitptl/medibook-api/pkg/metrics"
	"github.com/jwalitptl/medibook-api/pkg/payment"
	"github.com/jwalitptl/medibook-api/pkg/security"
	"github.com/jwalitptl/medibook-api/pkg/validator"
)

type App struct {
	Store    *repository.Store
	Sessions repository.SessionStore
	Metrics  *metrics.Metrics
	Admin    *admin.Service

	notifier *notification.Service
	redis    *goredis.Client
	router   *router.Router
}

// New connects the configured backends and builds the HTTP stack.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a, err := NewWithStore(ctx, cfg, store)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	return a, nil
}

// OpenStore connects the storage backend named by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (*repository.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		client, err := mongo.Connect(ctx, cfg.Mongo.ToStoreConfig())
		if err != nil {
			return nil, err
		}
		return mongo.NewStore(client, cfg.Mongo.Database), nil
	case config.DriverPostgres:
		db, err := postgres.NewDB(cfg.Postgres.ToStoreConfig())
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(db), nil
	case config.DriverMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Migrate creates the schema or indexes of the configured backend.
func Migrate(ctx context.Context, cfg config.StorageConfig) error {
	switch cfg.Driver {
	case config.DriverMongo:
		client, err := mongo.Connect(ctx, cfg.Mongo.ToStoreConfig())
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())
		return mongo.EnsureIndexes(ctx, client, cfg.Mongo.Database)
	case config.DriverPostgres:
		db, err := postgres.NewDB(cfg.Postgres.ToStoreConfig())
		if err != nil {
			return err
		}
		defer db.Close()
		return postgres.Migrate(ctx, db)
	case config.DriverMemory:
		return nil
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// NewWithStore builds the app over an already opened store.
func NewWithStore(ctx context.Context, cfg *config.Config, store *repository.Store) (*App, error) {
	if err := validator.Setup(model.ValidationEnums()); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry, cfg.Monitoring.Namespace)

	a := &App{Store: store, Metrics: m}

	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		client, err := redisBroker.NewClient(ctx, cfg.Redis.ToBrokerConfig())
		if err != nil {
			return nil, err
		}
		a.redis = client
		a.Sessions = redisRepo.NewSessionStore(client)
		broker = redisBroker.NewRedisBroker(client, log.Logger)
	} else {
		log.Warn().Msg("redis not configured, session revocation is kept in process memory")
		a.Sessions = memory.NewSessionStore()
	}

	photos, err := storage.NewLocalStore(cfg.Uploads.ToStoreConfig())
	if err != nil {
		a.closeRedis()
		return nil, err
	}

	var emailSvc email.Service
	if smtp := cfg.Notification.SMTP.ToEmailConfig(); smtp.Enabled() {
		emailSvc = email.NewSMTPService(smtp)
	}
	var smsSvc sms.Service
	if twilio := cfg.Notification.Twilio.ToSMSConfig(); twilio.Enabled() {
		smsSvc = sms.NewTwilioService(twilio)
	}
	var gateway payment.Gateway
	if cfg.PaymentEnabled() {
		gateway = payment.NewRazorpayGateway(cfg.Payment.ToGatewayConfig())
	}

	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.TTL)

	a.notifier = notification.NewService(emailSvc, smsSvc, broker, m, cfg.Notification.Timeout)
	appointments := appointment.NewService(store.Bookings, store.Doctors, store.Patients, a.notifier, m,
		appointment.WithLocation(cfg.Location()))
	accounts := account.NewService(store.Patients, store.Doctors, store.Bookings, a.Sessions, photos, jwtSvc.TTL(), m)
	authSvc := authService.NewService(store.Patients, store.Doctors, hasher, jwtSvc)
	patients := patient.NewService(store.Patients, appointments, accounts, photos)
	doctors := doctor.NewService(store.Doctors, appointments, accounts, photos)
	reviews := review.NewService(store.Doctors, store.Patients, m)
	payments := paymentService.NewService(gateway, store.Doctors, store.Patients, store.Bookings, appointments, cfg.Payment.Currency, m)
	a.Admin = admin.NewService(store.Patients, store.Doctors, store.Bookings, appointments, accounts, hasher)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, a.Sessions)

	metricsPath := ""
	if cfg.Monitoring.PrometheusEnabled {
		metricsPath = cfg.Monitoring.MetricsPath
	}

	a.router = router.NewRouter(router.Handlers{
		Health:      health.NewHandler(store.Health),
		Auth:        authHandler.NewHandler(authSvc, photos),
		Doctor:      doctorHandler.NewHandler(doctors, authMiddleware),
		Review:      reviewHandler.NewHandler(reviews, authMiddleware),
		Patient:     patientHandler.NewHandler(patients, authMiddleware),
		Appointment: appointmentHandler.NewHandler(appointments, authMiddleware),
		Booking:     bookingHandler.NewHandler(payments, authMiddleware),
		Admin:       adminHandler.NewHandler(a.Admin, authMiddleware),
	}, router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig: middleware.CORSConfig{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           cfg.CORS.MaxAge,
		},
		SecurityConfig: securityConfig(cfg.Security),
		SizeLimit: middleware.SizeLimitConfig{
			MaxBodySize:   cfg.Server.MaxBodyBytes,
			MaxUploadSize: cfg.Uploads.MaxSize + 1<<20,
		},
		RequestTimeout: cfg.Server.RequestTimeout,
		MetricsPath:    metricsPath,
		Gatherer:       registry,
		Photos:         photos,
	}, m)
	a.router.Setup()

	return a, nil
}

func securityConfig(cfg config.SecurityConfig) middleware.SecurityConfig {
	sc := middleware.DefaultSecurityConfig()
	sc.HSTS = cfg.HSTS
	return sc
}

func (a *App) Handler() http.Handler {
	return a.router.Engine()
}

// Close waits for in-flight notifications and releases connections.
func (a *App) Close(ctx context.Context) error {
	a.notifier.Wait()
	a.closeRedis()
	return a.Store.Close(ctx)
}

func (a *App) closeRedis() {
	if a.redis == nil {
		return
	}
	if err := a.redis.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close redis client")
	}
}
