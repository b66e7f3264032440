package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/gmscreen/initiative/internal/dependencies/clock"
	"github.com/gmscreen/initiative/internal/middleware"
)

// RouterConfig holds dependencies for the WebSocket router
type RouterConfig struct {
	Logger  *slog.Logger
	Hub     *Hub
	Handler *Handler
	Clock   clock.Clock
}

// NewRouter creates the HTTP router: the WebSocket endpoint plus a
// health check
func NewRouter(cfg RouterConfig) *mux.Router {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	r := mux.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler))
	r.Use(middleware.Logging(cfg.Logger))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			cfg.Logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
			return
		}

		client := NewClient(cfg.Hub, conn, cfg.Handler, cfg.Logger, cfg.Clock.Now())
		cfg.Hub.Register(client)

		go client.WritePump()

		// seed the login autocompletion roster before the first request
		if names, err := cfg.Handler.Names(req.Context()); err == nil {
			client.Send(names)
		}

		client.ReadPump(req.Context())
	}).Methods(http.MethodGet)

	return r
}
