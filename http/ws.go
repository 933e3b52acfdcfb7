package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"stockcast/dashboard"
	"stockcast/forecast"
)

const (
	// 等待客户端消息的最长时间
	sessionIdleTimeout = 10 * time.Minute
	writeWait          = 10 * time.Second
	maxMessageSize     = 1024
)

// newUpgrader 只接受允许列表中的来源；没有Origin头的非浏览器客户端直接放行
func newUpgrader(origins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(origins, origin)
		},
	}
}

var sessionLogger = zap.NewNop()

// SetSessionLogger 设置WebSocket会话日志
func SetSessionLogger(logger *zap.Logger) {
	if logger != nil {
		sessionLogger = logger
	}
}

func RegisterSessionHandler(mux *http.ServeMux, origins []string) {
	upgrader := newUpgrader(origins)
	mux.HandleFunc("GET /api/ws/session", func(w http.ResponseWriter, r *http.Request) {
		handleSession(upgrader, w, r)
	})
}

// handleSession 每条客户端消息即一次交互：{"days":N,"generate":true}，服务端返回整页视图
func handleSession(upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request) {
	d := dash
	if d == nil {
		http.Error(w, "dashboard not initialized", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sessionLogger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	requestID := GetRequestID(r.Context())
	sessionLogger.Info("session opened", zap.String("request_id", requestID))
	conn.SetReadLimit(maxMessageSize)

	// 初始渲染：与页面首次加载一致
	if !writePage(conn, d.Run(r.Context(), dashboard.Interaction{Days: forecast.DefaultHorizon})) {
		return
	}

	for {
		conn.SetReadDeadline(time.Now().Add(sessionIdleTimeout))
		var interaction dashboard.Interaction
		if err := conn.ReadJSON(&interaction); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sessionLogger.Warn("session read failed", zap.String("request_id", requestID), zap.Error(err))
			}
			break
		}
		if !writePage(conn, d.Run(r.Context(), interaction)) {
			break
		}
	}
	sessionLogger.Info("session closed", zap.String("request_id", requestID))
}

func writePage(conn *websocket.Conn, page *dashboard.Page) bool {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(page); err != nil {
		sessionLogger.Warn("session write failed", zap.Error(err))
		return false
	}
	return true
}
