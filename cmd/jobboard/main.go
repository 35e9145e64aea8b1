package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/jobboard/internal/jobboard/auth"
	"github.com/gartstein/jobboard/internal/jobboard/config"
	"github.com/gartstein/jobboard/internal/jobboard/controller"
	"github.com/gartstein/jobboard/internal/jobboard/db"
	"github.com/gartstein/jobboard/internal/jobboard/events"
	"github.com/gartstein/jobboard/internal/jobboard/handlers"
	"github.com/gartstein/jobboard/internal/jobboard/storage"
	"github.com/gartstein/jobboard/internal/jobboard/verification"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const startupTimeout = time.Minute

// eventProducer is what the services publish to, closed on shutdown.
type eventProducer interface {
	controller.EventProducer
	Close()
}

func main() {
	// Values already in the environment win over .env.
	_ = godotenv.Load()

	cfg, err := config.Load(filepath.Join("internal", "jobboard", "config", "config.yaml"))
	if err != nil {
		initLogger("info").Fatal("failed to load config", zap.Error(err))
	}

	logger := initLogger(cfg.LogLevel)
	if err := run(cfg, logger); err != nil {
		logger.Error("Service stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run wires the service and blocks until a shutdown signal or a server
// failure. Deferred cleanup runs on both paths.
func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	repo, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer repo.Close()

	producer, err := initProducer(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Kafka producer: %w", err)
	}
	defer producer.Close()

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	var assets handlers.AssetStore
	if cfg.S3Bucket != "" {
		store, err := storage.NewS3Store(ctx, storage.Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize asset storage: %w", err)
		}
		assets = store
	} else {
		logger.Warn("S3_BUCKET not set, image uploads are disabled")
	}

	otp := verification.NewMemoryProvider(cfg.OTPTTL, cfg.OTPMaxAttempts, verification.NewLogNotifier(logger), logger)

	var mailer verification.Notifier = verification.NewLogNotifier(logger)
	if cfg.SMTPHost != "" {
		mailer = verification.NewMailNotifier(verification.MailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, logger)
	} else {
		logger.Warn("SMTP_HOST not set, email codes are only logged")
	}
	mail := verification.NewMemoryProvider(cfg.OTPTTL, cfg.OTPMaxAttempts, mailer, logger)

	accountSvc := controller.NewAccountService(repo, auth.NewHasher(cfg.BcryptCost), tokens, otp, mail, producer, logger)
	companySvc := controller.NewCompanyService(repo, producer, logger)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Accounts:   handlers.NewAccountHandler(accountSvc, logger),
		Companies:  handlers.NewCompanyHandler(companySvc, assets, logger),
		Verifier:   tokens,
		DB:         repo,
		CORSOrigin: cfg.CORSOrigin,
		Logger:     logger,
	})

	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, router, logger)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	return waitForShutdown(server, serveErr, logger)
}

// initLogger builds a production logger, or a development one for debug.
func initLogger(level string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		zcfg := zap.NewProductionConfig()
		if lvl, perr := zap.ParseAtomicLevel(level); perr == nil {
			zcfg.Level = lvl
		}
		logger, err = zcfg.Build()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// initDatabase connects and migrates, retrying while the database comes up.
func initDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*db.Repository, error) {
	dbConf := &db.Config{
		Driver:       cfg.DBDriver,
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		User:         cfg.DBUser,
		Password:     cfg.DBPassword,
		DBName:       cfg.DBName,
		SSLMode:      cfg.DBSSLMode,
		Path:         cfg.DBPath,
		MaxOpenConns: cfg.DBMaxOpenConns,
	}

	var repo *db.Repository
	err := backoff.RetryNotify(func() error {
		var err error
		repo, err = db.NewRepository(ctx, dbConf, logger)
		return err
	}, backoff.WithContext(backoff.NewExponentialBackOff(), ctx), func(err error, wait time.Duration) {
		logger.Warn("database not ready, retrying", zap.Error(err), zap.Duration("wait", wait))
	})
	return repo, err
}

// initProducer connects to Kafka, or discards events when no brokers are set.
func initProducer(cfg *config.Config, logger *zap.Logger) (eventProducer, error) {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, domain events are discarded")
		return events.NopProducer{}, nil
	}

	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = startupTimeout

	var producer *events.Producer
	err := backoff.RetryNotify(func() error {
		var err error
		producer, err = events.NewProducer(brokers, logger, cfg.Topic)
		return err
	}, retry, func(err error, wait time.Duration) {
		logger.Warn("Kafka not ready, retrying", zap.Error(err), zap.Duration("wait", wait))
	})
	if err != nil {
		return nil, err
	}
	return producer, nil
}

// waitForShutdown blocks until an interrupt, SIGTERM or a serve failure,
// then shuts down servers and returns the serve error, if any.
func waitForShutdown(server *handlers.Server, serveErr <-chan error, logger *zap.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	var err error
	select {
	case <-stop:
	case err = <-serveErr:
		if err != nil {
			err = fmt.Errorf("failed to serve: %w", err)
		}
	}

	server.Stop()
	logger.Info("Servers stopped properly")
	return err
}
