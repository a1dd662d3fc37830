// Package http 提供预测服务的HTTP前端
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rainpredict/db"
	"rainpredict/ml"
	"rainpredict/monitoring"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8000,
		Timeout:        30 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

const maxBodyBytes = 1 << 20

// Deps 处理器依赖。Store 可以为空，此时不记录预测审计。
type Deps struct {
	Predictor *ml.Predictor
	Store     *db.Store
	Metrics   *monitoring.Metrics
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
	Labels    map[int]string
}

// NewRouter 创建路由并挂载中间件链
func NewRouter(config ServerConfig, deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	h := &handler{deps: deps}

	r := chi.NewRouter()
	r.Use(Chain(
		RecoveryMiddleware(deps.Logger),       // 1. 恢复中间件（最先执行，捕获panic）
		RequestIDMiddleware,                   // 2. 请求ID
		LoggerMiddleware(deps.Logger),         // 3. 日志中间件
		SecurityHeadersMiddleware,             // 4. 安全头中间件
		CORSMiddleware(config.AllowedOrigins), // 5. CORS中间件
		RequestSizeMiddleware(maxBodyBytes),   // 6. 请求体大小限制
	))

	r.Get("/", h.handleHealth)
	r.Post("/predict", h.handlePredict)
	r.Get("/ui", h.handleForm)
	r.Post("/ui", h.handleFormSubmit)
	r.Get("/ws/predict", h.handleWebSocket(config.AllowedOrigins))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	return r
}

// NewServer 创建HTTP服务器
func NewServer(config ServerConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Port),
			Handler:           NewRouter(config, deps),
			ReadHeaderTimeout: config.Timeout,
			IdleTimeout:       120 * time.Second,
		},
		config: config,
		logger: logger,
	}
}

// Start 启动服务器，阻塞直到服务器关闭
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", s.server.Addr),
		zap.String("websocket", "ws://localhost"+s.server.Addr+"/ws/predict"))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr 返回服务器地址
func (s *Server) Addr() string {
	return s.server.Addr
}
