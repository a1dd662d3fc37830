package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"rainpredict/pipeline"
)

const (
	wsIdleTimeout  = 2 * time.Minute
	wsWriteTimeout = 10 * time.Second
)

// wsReply 每条消息对应一条回复
type wsReply struct {
	PredictedClass *int      `json:"predicted_class,omitempty"`
	Probabilities  []float64 `json:"probabilities,omitempty"`
	Detail         string    `json:"detail,omitempty"`
}

// handleWebSocket 处理WebSocket预测连接。每个连接串行处理消息，连接之间不共享状态。
func (h *handler) handleWebSocket(origins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(origins, origin)
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.deps.Logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		if h.deps.Metrics != nil {
			h.deps.Metrics.WSConnections.Inc()
			defer h.deps.Metrics.WSConnections.Dec()
		}

		conn.SetReadLimit(maxBodyBytes)
		for {
			conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.deps.Logger.Info("websocket closed", zap.Error(err))
				}
				return
			}

			reply := h.wsPredict(r, message)
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(reply); err != nil {
				h.deps.Logger.Warn("websocket write error", zap.Error(err))
				return
			}
		}
	}
}

func (h *handler) wsPredict(r *http.Request, message []byte) wsReply {
	var req predictRequest
	if err := json.Unmarshal(message, &req); err != nil {
		h.observeError(sourceWS, "decode")
		return wsReply{Detail: "message must be a JSON object"}
	}
	rec, err := req.record()
	if err != nil {
		h.observeError(sourceWS, "decode")
		return wsReply{Detail: err.Error()}
	}

	prediction, err := h.predict(r.Context(), sourceWS, rec)
	if err != nil {
		var dateErr *pipeline.DateFormatError
		if errors.As(err, &dateErr) {
			return wsReply{Detail: msgDateFormat}
		}
		return wsReply{Detail: msgInternal}
	}
	class := prediction.Class
	return wsReply{PredictedClass: &class, Probabilities: prediction.Probabilities}
}
