package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Mylifeforrent/react-management-backend/pkg/auth"
	"github.com/Mylifeforrent/react-management-backend/pkg/httputil"
	"github.com/Mylifeforrent/react-management-backend/pkg/middleware"
	"github.com/Mylifeforrent/react-management-backend/pkg/observability"
	"github.com/Mylifeforrent/react-management-backend/pkg/store"
)

// Version reported by the health endpoint
const Version = "1.0.0"

// timeNow is swapped out by tests that pin the clock
var timeNow = time.Now

// Options collects the dependencies a Server needs
type Options struct {
	Users   store.UserStore
	Tokens  *auth.TokenService
	PreHash *auth.PreHashVerifier
	Replay  auth.ReplayGuard
	Metrics *observability.Metrics
	Log     logrus.FieldLogger
}

// Server represents the API server
type Server struct {
	router  *mux.Router
	log     logrus.FieldLogger
	users   store.UserStore
	metrics *observability.Metrics
	started time.Time

	authHandlers      *AuthHandlers
	userHandlers      *UserHandlers
	dashboardHandlers *DashboardHandlers
}

// NewServer creates the API server and sets up its routes
func NewServer(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	gates := middleware.NewAuthMiddleware(opts.Tokens, opts.Users, log, opts.Metrics)

	s := &Server{
		router:  mux.NewRouter(),
		log:     log,
		users:   opts.Users,
		metrics: opts.Metrics,
		started: time.Now(),

		authHandlers:      NewAuthHandlers(opts.Users, opts.Tokens, opts.PreHash, opts.Replay, opts.Metrics, log),
		userHandlers:      NewUserHandlers(opts.Users, log),
		dashboardHandlers: NewDashboardHandlers(opts.Users, log),
	}
	s.setupRoutes(gates)
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes(gates *middleware.AuthMiddleware) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.AccessLog(s.log, s.metrics))

	s.router.HandleFunc("/api/health", s.health).Methods("GET")
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	s.authHandlers.RegisterRoutes(s.router, gates)
	s.userHandlers.RegisterRoutes(s.router, gates)
	s.dashboardHandlers.RegisterRoutes(s.router, gates)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "resource not found")
	})
}

// health handles GET /api/health
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, "service healthy", map[string]interface{}{
		"status":  "healthy",
		"version": Version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
