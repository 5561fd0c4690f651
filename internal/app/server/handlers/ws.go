package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chandra-gummaluru/beamer-plus/internal/app/server/ws"
	"github.com/chandra-gummaluru/beamer-plus/internal/core/domain"
	"github.com/chandra-gummaluru/beamer-plus/internal/core/services"
	"github.com/chandra-gummaluru/beamer-plus/pkg/logging"
	"github.com/chandra-gummaluru/beamer-plus/pkg/middleware"
)

type WSHandler struct {
	router *services.Router
}

func NewWSHandler(router *services.Router) *WSHandler {
	return &WSHandler{router: router}
}

// Handler upgrades the connection and pumps frames into the router.
// Role is decided by the join_* event the client sends afterwards, not
// by anything on this request.
func (h *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	span := trace.SpanFromContext(r.Context())

	sessionCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(sessionCtx)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // open to anyone on the local network, like the rest of the app
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - upgrade - ws upgrade failed", "err", err)
		cancel()
		return
	}
	conn.SetCloseHandler(func(code int, text string) error {
		cancel()
		return nil
	})
	sock := ws.NewWebSocket(ctx, conn)

	connID := uuid.NewString()
	span.SetAttributes(attribute.String("conn_id", connID))
	client := ws.NewClient(ctx, sock, connID)
	middleware.RecordClientConnect()
	log.InfoContext(r.Context(), "ws handler - connect - connection established", logging.Conn(connID))

	defer func() {
		h.router.Disconnect(ctx, client)
		client.Close()
		cancel()
		middleware.RecordClientDisconnect()
		log.Info("ws handler - disconnect - connection closed", logging.Conn(connID))
	}()

	// Frames are dispatched synchronously so this connection's events
	// stay FIFO through the core.
	sock.ReadLoop(func(data []byte) {
		var evt domain.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			log.WarnContext(ctx, "ws handler - read - malformed frame dropped", logging.Conn(connID), "err", err)
			return
		}
		h.router.Dispatch(ctx, client, evt)
	})
}
