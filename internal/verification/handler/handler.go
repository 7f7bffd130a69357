package handler

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"medix/internal/platform/metrics"
	"medix/internal/verification"
	"medix/pkg/requestcontext"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Inbound message types.
const (
	MessageInput = "input"
	MessageReset = "reset"
	MessageRetry = "retry"
)

// MessageState tags every outbound frame.
const MessageState = "state"

type inbound struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type outbound struct {
	Type string `json:"type"`
	verification.Snapshot
}

// Handler serves the live registry verification channel. Each websocket
// connection owns one Controller for the lifetime of the connection.
type Handler struct {
	verifier verification.Verifier
	debounce time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New creates a verification Handler. m may be nil.
func New(verifier verification.Verifier, debounce time.Duration, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		verifier: verifier,
		debounce: debounce,
		metrics:  m,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Register registers the websocket route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/ws/slmc", h.handleSocket)
}

func (h *Handler) handleSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.WarnContext(ctx, "websocket upgrade failed",
			"request_id", requestID,
			"error", err,
		)
		return
	}
	h.metrics.SocketOpened()
	defer h.metrics.SocketClosed()

	ctrl := verification.NewController(ctx, h.verifier,
		verification.WithDebounce(h.debounce),
		verification.WithLogger(h.logger),
	)

	// changed coalesces notifications; the writer always sends the latest state.
	changed := make(chan struct{}, 1)
	signal := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}
	ctrl.OnChange(func(verification.Snapshot) { signal() })
	signal()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writePump(conn, ctrl, changed, done)
	}()

	h.readPump(r, conn, ctrl)

	ctrl.Close()
	close(done)
	wg.Wait()
	_ = conn.Close()

	h.logger.DebugContext(ctx, "verification socket closed", "request_id", requestID)
}

func (h *Handler) readPump(r *http.Request, conn *websocket.Conn, ctrl *verification.Controller) {
	ctx := r.Context()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.WarnContext(ctx, "verification socket closed unexpectedly",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
			}
			return
		}

		switch msg.Type {
		case MessageInput:
			ctrl.SetInput(msg.Value)
		case MessageReset:
			ctrl.Reset()
		case MessageRetry:
			ctrl.Retry()
		default:
			h.logger.WarnContext(ctx, "unknown verification message",
				"request_id", requestcontext.RequestID(ctx),
				"type", msg.Type,
			)
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, ctrl *verification.Controller, changed <-chan struct{}, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		// Unblocks the reader when a write fails first.
		_ = conn.Close()
	}()

	for {
		select {
		case <-changed:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(outbound{Type: MessageState, Snapshot: ctrl.Snapshot()}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
