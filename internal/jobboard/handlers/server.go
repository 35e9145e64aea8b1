// Package handlers exposes the job board over HTTP (gin) and runs a gRPC
// server carrying the standard health and reflection services.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gartstein/jobboard/internal/jobboard/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig collects what the HTTP routes are built from.
type RouterConfig struct {
	Accounts   *AccountHandler
	Companies  *CompanyHandler
	Verifier   auth.TokenVerifier
	DB         Pinger
	CORSOrigin string
	Logger     *zap.Logger
}

// NewRouter wires the HTTP API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(
		RequestID(),
		RequestLogger(cfg.Logger.Named("http")),
		gin.Recovery(),
		CORS(cfg.CORSOrigin),
	)

	router.GET("/healthz", healthz(cfg.DB))

	authGroup := router.Group("/auth")
	authGroup.POST("/register", cfg.Accounts.Register)
	authGroup.POST("/login", cfg.Accounts.Login(false))
	authGroup.POST("/mobile/send-code", cfg.Accounts.SendMobileCode)
	authGroup.POST("/mobile/verify", cfg.Accounts.VerifyMobileCode)
	authGroup.POST("/email/send-code", cfg.Accounts.SendEmailCode)
	authGroup.POST("/email/verify", cfg.Accounts.VerifyEmailCode)

	company := router.Group("/company")
	company.POST("/login", cfg.Accounts.Login(true))

	protected := company.Group("", auth.Middleware(cfg.Verifier))
	protected.POST("/register", cfg.Companies.RegisterCompany)
	protected.GET("/profile", cfg.Companies.GetProfile)
	protected.PUT("/profile", cfg.Companies.UpdateProfile)

	return router
}

func healthz(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// Server holds references to both a gRPC server and an HTTP server.
type Server struct {
	grpcServer   *grpc.Server
	health       *health.Server
	httpServer   *http.Server
	logger       *zap.Logger
	grpcEndpoint string
	httpEndpoint string
}

// NewServer constructs a Server with separate endpoints for gRPC and HTTP.
// handler serves every HTTP request.
func NewServer(
	grpcPort int,
	httpPort int,
	handler http.Handler,
	logger *zap.Logger,
	grpcOpts ...grpc.ServerOption,
) *Server {
	logger = logger.Named("server")
	opts := append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(UnaryLoggingInterceptor(logger)),
	}, grpcOpts...)

	s := &Server{
		grpcServer: grpc.NewServer(opts...),
		health:     health.NewServer(),
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", httpPort),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:       logger,
		grpcEndpoint: fmt.Sprintf(":%d", grpcPort),
		httpEndpoint: fmt.Sprintf(":%d", httpPort),
	}

	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	reflection.Register(s.grpcServer)
	return s
}

// Start runs the gRPC and HTTP servers concurrently, returning on the first error.
func (s *Server) Start() error {
	var wg sync.WaitGroup
	wg.Add(2)
	errChan := make(chan error, 2)

	go func() {
		defer wg.Done()
		s.logger.Info("Starting gRPC server", zap.String("endpoint", s.grpcEndpoint))
		lis, err := net.Listen("tcp", s.grpcEndpoint)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen error: %w", err)
			return
		}
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		if err := s.grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("gRPC serve error: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		s.logger.Info("Starting HTTP server", zap.String("endpoint", s.httpEndpoint))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP serve error: %w", err)
		}
	}()

	go func() {
		wg.Wait()
		close(errChan)
	}()

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop reports NOT_SERVING to health checkers, then gracefully shuts down
// both servers.
func (s *Server) Stop() {
	s.logger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	s.logger.Info("Servers stopped")
}
