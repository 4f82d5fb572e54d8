package adapthttp

import (
	"net/http"
	"time"

	"technowear/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Services are the application services the adapter routes to.
type Services struct {
	Auth     *app.AuthService
	Health   *app.HealthService
	Trends   *app.TrendsService
	Goals    *app.GoalService
	Eco      *app.EcoService
	Garments *app.GarmentService
	Pairing  *app.PairingService
}

// Options tune the adapter.
type Options struct {
	WebDir         string
	AllowedOrigins []string
	// SecureCookies marks cookies Secure even on plain HTTP behind a proxy.
	SecureCookies bool
	// MetricsInterval is the /ws/metrics tick. Zero means app.MetricJitterInterval.
	MetricsInterval time.Duration
	AuthRateEvery   time.Duration
	AuthRateBurst   int
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	svc      Services
	opts     Options
	log      *zap.SugaredLogger
	limiter  *ipLimiter
	upgrader websocket.Upgrader
}

// New creates a Server wired to the given application services.
func New(svc Services, opts Options, log *zap.SugaredLogger) *Server {
	if opts.MetricsInterval <= 0 {
		opts.MetricsInterval = app.MetricJitterInterval
	}
	if opts.AuthRateEvery <= 0 {
		opts.AuthRateEvery = 2 * time.Second
	}
	if opts.AuthRateBurst <= 0 {
		opts.AuthRateBurst = 5
	}
	s := &Server{
		svc:     svc,
		opts:    opts,
		log:     log,
		limiter: newIPLimiter(opts.AuthRateEvery, opts.AuthRateBurst),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(s.browserSession)

	r.Route("/api", func(r chi.Router) {
		r.Use(withNoCache)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})
		r.Get("/session", s.handleSession)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/flow/switch", s.handleFlowSwitch)
			r.With(s.rateLimit).Post("/flow/submit", s.handleFlowSubmit)
			r.With(s.rateLimit).Post("/flow/otp", s.handleFlowVerifyOTP)
			r.Post("/flow/otp/cancel", s.handleFlowCancelOTP)
			r.With(s.rateLimit).Post("/signup/password", s.handlePasswordSignUp)
			r.With(s.rateLimit).Get("/oauth/{provider}", s.handleOAuthStart)
			r.Get("/oauth/{provider}/callback", s.handleOAuthCallback)
			r.Post("/signout", s.handleSignOut)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/metrics/latest", s.handleMetricsLatest)
			r.Get("/trends", s.handleTrends)
			r.Get("/goals", s.handleGoalsList)
			r.Post("/goals", s.handleGoalsAdd)
			r.Post("/goals/{id}/toggle", s.handleGoalToggle)
			r.Get("/eco", s.handleEco)

			r.Get("/garments", s.handleGarmentsList)
			r.Post("/garments/{id}/delete", s.handleGarmentDeleteRequest)
			r.Post("/garments/delete/{token}/confirm", s.handleGarmentDeleteConfirm)
			r.Post("/garments/delete/{token}/cancel", s.handleGarmentDeleteCancel)

			r.Post("/pairing", s.handlePairingStart)
			r.Get("/pairing/{id}", s.handlePairingState)
			r.Post("/pairing/{id}/complete", s.handlePairingComplete)
			r.Delete("/pairing/{id}", s.handlePairingClose)
		})
	})

	r.Route("/ws", func(r chi.Router) {
		r.Get("/session", s.handleWSSession)
		r.With(s.requireSession).Get("/metrics", s.handleWSMetrics)
		r.With(s.requireSession).Get("/garments", s.handleWSGarments)
	})

	spa := spaFromDisk(s.opts.WebDir)
	for _, page := range []app.Route{app.RouteLanding, app.RouteAuth, app.RouteDashboard} {
		r.Get(string(page), s.gatedPage(page, spa))
	}
	r.NotFound(spa.ServeHTTP)

	return r
}
