package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parlor/internal/config"
	"parlor/internal/db"
	"parlor/internal/notify"
	"parlor/internal/service"
)

type Server struct {
	router *chi.Mux
	config *config.Config
	hub    *notify.Hub
}

func NewServer(
	cfg *config.Config,
	database *db.DB,
	users *service.UsersService,
	channels *service.ChannelsService,
	hub *notify.Hub,
) *Server {
	authHandler := NewAuthHandler(users)
	channelHandler := NewChannelHandler(channels)
	messageHandler := NewMessageHandler(channels)
	invitationHandler := NewInvitationHandler(channels)
	eventsHandler := NewEventsHandler(hub, channels)
	wsHandler := NewWebSocketHandler(hub, users, channels)
	healthHandler := NewHealthHandler(database)

	authMiddleware := NewAuthMiddleware(users)

	r := chi.NewRouter()
	r.Use(slogRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(metricsMiddleware)
	r.Use(corsMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", healthHandler.Check)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(maxBodySizeMiddleware(1 << 20)) // 1 MB

		r.Post("/users", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)

			r.Post("/logout", authHandler.Logout)
			r.Post("/invite", authHandler.CreateInvite)

			r.Get("/invitations", invitationHandler.ListMine)

			r.Route("/channels", func(r chi.Router) {
				r.Get("/", channelHandler.ListJoined)
				r.Post("/", channelHandler.Create)
				r.Get("/search", channelHandler.Search)
				r.Get("/listen", eventsHandler.Listen)

				r.Route("/{channelID}", func(r chi.Router) {
					r.Get("/", channelHandler.Get)
					r.Post("/join", channelHandler.Join)
					r.Delete("/members", channelHandler.Leave)
					r.Get("/messages", messageHandler.List)
					r.Post("/messages", messageHandler.Create)
					r.Post("/invitations", invitationHandler.Create)
					r.Post("/invitations/accept", invitationHandler.Accept)
					r.Post("/invitations/decline", invitationHandler.Decline)
				})
			})
		})
	})

	r.Get("/ws", wsHandler.ServeWS)

	return &Server{
		router: r,
		config: cfg,
		hub:    hub,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Shutdown() {
	s.hub.Shutdown()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func maxBodySizeMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr,
		)
	})
}
