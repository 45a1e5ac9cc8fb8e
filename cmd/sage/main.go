package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/sage/config"
	"github.com/Ramsey-B/sage/internal/handlers"
	"github.com/Ramsey-B/sage/internal/repositories/country"
	"github.com/Ramsey-B/sage/internal/repositories/plan"
	"github.com/Ramsey-B/sage/pkg/catalogsync"
	"github.com/Ramsey-B/sage/pkg/chat"
	sagedb "github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/intent"
	"github.com/Ramsey-B/sage/pkg/kafka"
	"github.com/Ramsey-B/sage/pkg/llm"
	"github.com/Ramsey-B/sage/pkg/matching"
	"github.com/Ramsey-B/sage/pkg/memory"
	"github.com/Ramsey-B/sage/pkg/middleware"
	"github.com/Ramsey-B/sage/pkg/rag"
	"github.com/Ramsey-B/sage/pkg/routes/health"
	"github.com/Ramsey-B/sage/pkg/startup"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"github.com/Ramsey-B/sage/pkg/tracing/exporters"
)

// dependency adapts a pair of closures to the startup.Dependency interface.
type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string     { return d.name }
func (d *dependency) DependsOn() []string { return d.dependsOn }

func (d *dependency) Start(ctx context.Context) error { return d.start(ctx) }

func (d *dependency) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	return d.stop(ctx)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("failed to load configuration: %v", err)
	}

	zapLogger, err := buildZapLogger(cfg.Logging)
	if err != nil {
		stdlog.Fatalf("failed to build logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)
	logger.WithFields(map[string]any{
		"environment": cfg.Environment,
		"version":     cfg.Version,
	}).Infof("Starting %s", cfg.AppName)

	// Shared across dependency closures; assigned in start order.
	var (
		tracerProvider *sdktrace.TracerProvider
		db             *sqlx.DB
		countryRepo    *country.Repository
		planRepo       *plan.Repository
		store          *memory.Store
		consumer       *kafka.Consumer
		server         *echo.Echo
		checker        *health.Checker
	)

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)

	boot.AddDependency(&dependency{
		name: "tracing",
		start: func(ctx context.Context) error {
			var exporter sdktrace.SpanExporter
			if cfg.Tracing.Enabled {
				otlp, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
					Endpoint: cfg.Tracing.Endpoint,
					Protocol: cfg.Tracing.Protocol,
					Insecure: cfg.Tracing.Insecure,
					Timeout:  10 * time.Second,
				})
				if err != nil {
					return err
				}
				exporter = otlp
			} else {
				exporter = &exporters.ConsoleExporter{}
			}

			tracerProvider = sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(exporter),
				sdktrace.WithResource(resource.NewSchemaless(
					attribute.String("service.name", cfg.AppName),
					attribute.String("service.version", cfg.Version),
					attribute.String("deployment.environment", cfg.Environment),
				)),
			)
			otel.SetTracerProvider(tracerProvider)
			otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
				propagation.TraceContext{},
				propagation.Baggage{},
			))
			tracing.SetTracer(tracerProvider.Tracer(cfg.AppName))
			return nil
		},
		stop: func(ctx context.Context) error {
			return tracerProvider.Shutdown(ctx)
		},
	})

	boot.AddDependency(&dependency{
		name: "database",
		start: func(ctx context.Context) error {
			conn, err := sqlx.ConnectContext(ctx, cfg.Database.Driver, cfg.Database.DSN())
			if err != nil {
				return err
			}
			conn.SetMaxOpenConns(cfg.Database.MaxOpenConns)
			conn.SetMaxIdleConns(cfg.Database.MaxIdleConns)
			conn.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime())
			db = conn

			dbi := sagedb.NewDatabaseInstance(db, logger)
			countryRepo = country.NewRepository(dbi, logger)
			planRepo = plan.NewRepository(dbi, logger)
			return nil
		},
		stop: func(ctx context.Context) error {
			return db.Close()
		},
	})

	boot.AddDependency(&dependency{
		name:      "migrations",
		dependsOn: []string{"database"},
		start: func(ctx context.Context) error {
			driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
			if err != nil {
				return err
			}
			ms := sagedb.NewMigrationService(logger, &sagedb.MigrationConfig{
				MigrationFolderPath: cfg.Database.MigrationFolderPath,
				AutoRollback:        cfg.Database.MigrationAutoRollback,
			})
			return ms.Migrate(cfg.Database.Name, driver)
		},
	})

	boot.AddDependency(&dependency{
		name: "redis",
		start: func(ctx context.Context) error {
			s, err := memory.NewStore(memory.Config{
				Host:     cfg.Redis.Host,
				Port:     cfg.Redis.Port,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
				TTL:      cfg.Memory.TTL(),
				Depth:    cfg.Memory.Depth,
			}, logger)
			if err != nil {
				return err
			}
			store = s
			return nil
		},
		stop: func(ctx context.Context) error {
			return store.Close()
		},
	})

	boot.AddDependency(&dependency{
		name:      "http-server",
		dependsOn: []string{"tracing", "database", "migrations", "redis"},
		start: func(ctx context.Context) error {
			llmClient := llm.NewClient(llm.Config{
				BaseURL: cfg.LLM.BaseURL,
				APIKey:  cfg.LLM.APIKey,
				Model:   cfg.LLM.Model,
				Timeout: cfg.LLM.Timeout(),
			}, logger)

			var retriever intent.Retriever
			var retrievalCheck interface {
				Ready(ctx context.Context) (bool, error)
			}
			if cfg.Weaviate.Enabled() {
				r, err := rag.NewRetriever(rag.Config{
					Scheme:    cfg.Weaviate.Scheme,
					Host:      cfg.Weaviate.Host,
					APIKey:    cfg.Weaviate.APIKey,
					ClassName: cfg.Weaviate.ClassName,
					TopK:      cfg.Weaviate.TopK,
				}, logger)
				if err != nil {
					return err
				}
				retriever = r
				retrievalCheck = r
			}

			extractor := intent.NewService(logger, llmClient, retriever, store, intent.Config{
				ContextTopK:  cfg.Weaviate.TopK,
				HistoryDepth: cfg.Memory.HistoryDepth,
			})
			matcher := matching.NewService(logger, planRepo, matching.Config{
				MaxExactResults: cfg.Matching.MaxExactResults,
				MaxCloseResults: cfg.Matching.MaxCloseResults,
			})
			chatService := chat.NewService(logger, extractor, countryRepo, matcher, store)
			chatHandler := handlers.NewChatHandler(chatService, countryRepo, logger)

			server = echo.New()
			server.HideBanner = true
			server.HidePort = true
			server.Server.ReadTimeout = time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second
			server.Server.WriteTimeout = time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second
			server.HTTPErrorHandler = middleware.Error(logger)

			server.Use(middleware.Context())
			server.Use(otelecho.Middleware(cfg.AppName))
			server.Use(middleware.Logger(logger))
			server.Use(echomw.CORSWithConfig(echomw.CORSConfig{
				AllowOrigins: cfg.Server.CORSOrigins,
			}))

			server.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

			checker = health.NewChecker(db, store, retrievalCheck, cfg.Version)
			checker.RegisterRoutes(server)

			api := server.Group("/api/v1")
			chatHandler.Register(api)

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			go func() {
				if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Error("HTTP server stopped unexpectedly")
				}
			}()
			logger.Infof("HTTP server listening on %s", addr)
			return nil
		},
		stop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})

	if cfg.Kafka.Enabled() {
		boot.AddDependency(&dependency{
			name:      "catalog-consumer",
			dependsOn: []string{"database", "migrations"},
			start: func(ctx context.Context) error {
				syncHandler := catalogsync.NewHandler(logger, countryRepo, planRepo)
				consumer = kafka.NewConsumer(kafka.ConsumerConfig{
					Brokers:       cfg.Kafka.BrokerList(),
					Topic:         cfg.Kafka.CatalogTopic,
					ConsumerGroup: cfg.Kafka.ConsumerGroup,
				}, logger, syncHandler.HandleMessage)
				return consumer.Start(ctx)
			},
			stop: func(ctx context.Context) error {
				return consumer.Stop()
			},
		})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("Startup failed")
		shutdown(boot, logger)
		os.Exit(1)
	}

	checker.SetReady(true)
	logger.Info("Startup complete")

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	checker.SetReady(false)
	shutdown(boot, logger)
}

func shutdown(boot *startup.Startup, logger ectologger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := boot.Stop(ctx); err != nil {
		logger.WithError(err).Error("Shutdown did not complete cleanly")
		return
	}
	logger.Info("Shutdown complete")
}

func buildZapLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.PrettyLogs {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
