// Package http 提供HTTP服务器功能
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"stockcast/dashboard"
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
	RateLimit      float64
	RateBurst      int
	AllowedOrigins []string
	// TrustProxy 为true时按X-Forwarded-For识别客户端（仅在反向代理之后开启）
	TrustProxy bool
}

// NewServer 创建HTTP服务器
func NewServer(config ServerConfig, dash *dashboard.Dashboard, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	SetDashboard(dash)
	SetSessionLogger(logger)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      NewHandler(config, logger),
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
		logger: logger,
	}
}

// NewHandler 注册所有路由并包装中间件链
func NewHandler(config ServerConfig, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// 注册所有处理器
	RegisterHandlers(mux)
	RegisterSessionHandler(mux, config.AllowedOrigins)

	// 创建中间件链
	chain := Chain(
		RecoveryMiddleware(logger),                                                 // 1. 恢复中间件（最先执行，捕获panic）
		LoggerMiddleware(logger),                                                   // 2. 日志中间件
		SecurityHeadersMiddleware,                                                  // 3. 安全头中间件
		CORSMiddleware(config.AllowedOrigins),                                      // 4. CORS中间件
		RateLimitMiddleware(config.RateLimit, config.RateBurst, config.TrustProxy), // 5. 限流中间件
		TimeoutMiddleware(config.Timeout),                                          // 6. 超时中间件
	)

	return chain(mux)
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))
	s.logger.Info("websocket endpoint", zap.String("url", fmt.Sprintf("ws://localhost%s/api/ws/session", s.server.Addr)))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}
