// Package api wires the HTTP handlers into a router.
package api

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/handlers"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/middleware"
	"github.com/jottaiandra/lunnor-finance-hub-sub000/services"
)

// Services are the dependencies the routes are served from.
type Services struct {
	Auth          *middleware.Authenticator
	Users         *services.UserService
	Transactions  *services.TransactionService
	Categories    *services.CategoryService
	Filters       *services.FilterService
	Goals         *services.GoalService
	PeaceFund     *services.PeaceFundService
	Notifications *services.NotificationService
}

// Options control the parts of the server that are not routes.
type Options struct {
	AllowedOrigins []string
	Production     bool
	// StaticDir holds the built frontend. Unknown GET paths fall back to its index.html.
	StaticDir string
}

// Server represents the API server
type Server struct {
	router  *mux.Router
	handler http.Handler
	auth    *middleware.Authenticator
	users   *services.UserService

	transactions  *handlers.TransactionHandler
	dashboard     *handlers.DashboardHandler
	categories    *handlers.CategoryHandler
	filters       *handlers.FilterHandler
	goals         *handlers.GoalHandler
	peaceFund     *handlers.PeaceFundHandler
	userHandler   *handlers.UserHandler
	notifications *handlers.NotificationHandler
}

// NewServer creates a new API server
func NewServer(svc Services, opts Options) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		auth:          svc.Auth,
		users:         svc.Users,
		transactions:  handlers.NewTransactionHandler(svc.Transactions, svc.Filters),
		dashboard:     handlers.NewDashboardHandler(svc.Transactions),
		categories:    handlers.NewCategoryHandler(svc.Categories),
		filters:       handlers.NewFilterHandler(svc.Filters),
		goals:         handlers.NewGoalHandler(svc.Goals),
		peaceFund:     handlers.NewPeaceFundHandler(svc.PeaceFund),
		userHandler:   handlers.NewUserHandler(svc.Users),
		notifications: handlers.NewNotificationHandler(svc.Notifications),
	}

	// Register routes with both direct paths and /api prefix to maintain compatibility
	s.registerRoutes(s.router)
	s.registerRoutes(s.router.PathPrefix("/api").Subrouter())

	if opts.StaticDir != "" {
		s.router.PathPrefix("/").Handler(spaHandler(opts.StaticDir)).Methods("GET")
	}

	// CORS wraps the whole router so preflight requests never reach route matching.
	s.handler = middleware.CORS(opts.AllowedOrigins, opts.Production)(s.router)
	return s
}

// Handler returns the HTTP handler for the API server
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) registerRoutes(r *mux.Router) {
	// Public routes (no auth required)
	r.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	// Signed in, possibly not yet approved
	protected := r.PathPrefix("").Subrouter()
	protected.Use(s.auth.Middleware)
	protected.HandleFunc("/users/sync", s.userHandler.SyncFirebaseUser).Methods("POST")
	protected.HandleFunc("/me", s.userHandler.Me).Methods("GET")
	protected.HandleFunc("/me", s.userHandler.UpdateMe).Methods("PUT")

	approved := protected.PathPrefix("").Subrouter()
	approved.Use(middleware.RequireApproved(s.users))

	approved.HandleFunc("/transactions", s.transactions.List).Methods("GET")
	approved.HandleFunc("/transactions", s.transactions.Create).Methods("POST")
	approved.HandleFunc("/transactions/unique-fields", s.transactions.UniqueFields).Methods("GET")
	approved.HandleFunc("/transactions/export", s.transactions.Export).Methods("GET")
	approved.HandleFunc("/transactions/{id}", s.transactions.Get).Methods("GET")
	approved.HandleFunc("/transactions/{id}", s.transactions.Update).Methods("PUT")
	approved.HandleFunc("/transactions/{id}", s.transactions.Delete).Methods("DELETE")

	approved.HandleFunc("/dashboard/summary", s.dashboard.Summary).Methods("GET")

	approved.HandleFunc("/categories", s.categories.List).Methods("GET")
	approved.HandleFunc("/categories", s.categories.Create).Methods("POST")
	approved.HandleFunc("/categories/suggest", s.categories.Suggest).Methods("GET")
	approved.HandleFunc("/categories/{id}", s.categories.Update).Methods("PUT")
	approved.HandleFunc("/categories/{id}", s.categories.Delete).Methods("DELETE")

	approved.HandleFunc("/filters", s.filters.GetSavedFilters).Methods("GET")
	approved.HandleFunc("/filters", s.filters.CreateSavedFilter).Methods("POST")
	approved.HandleFunc("/filters/{id}", s.filters.GetSavedFilter).Methods("GET")
	approved.HandleFunc("/filters/{id}", s.filters.UpdateSavedFilter).Methods("PUT")
	approved.HandleFunc("/filters/{id}", s.filters.DeleteSavedFilter).Methods("DELETE")

	approved.HandleFunc("/goals", s.goals.List).Methods("GET")
	approved.HandleFunc("/goals", s.goals.Create).Methods("POST")
	approved.HandleFunc("/goals/{id}", s.goals.Get).Methods("GET")
	approved.HandleFunc("/goals/{id}", s.goals.Update).Methods("PUT")
	approved.HandleFunc("/goals/{id}", s.goals.Delete).Methods("DELETE")
	approved.HandleFunc("/goals/{id}/deposit", s.goals.Deposit).Methods("POST")
	approved.HandleFunc("/goals/{id}/withdraw", s.goals.Withdraw).Methods("POST")

	approved.HandleFunc("/peace-fund", s.peaceFund.Get).Methods("GET")
	approved.HandleFunc("/peace-fund", s.peaceFund.Update).Methods("PUT")
	approved.HandleFunc("/peace-fund/deposit", s.peaceFund.Deposit).Methods("POST")
	approved.HandleFunc("/peace-fund/withdraw", s.peaceFund.Withdraw).Methods("POST")
	approved.HandleFunc("/peace-fund/movements", s.peaceFund.Movements).Methods("GET")

	approved.HandleFunc("/notifications/settings", s.notifications.GetSettings).Methods("GET")
	approved.HandleFunc("/notifications/settings", s.notifications.UpdateSettings).Methods("PUT")
	approved.HandleFunc("/notifications/test", s.notifications.SendTest).Methods("POST")

	admin := approved.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin(s.users))
	admin.HandleFunc("/users", s.userHandler.GetUsers).Methods("GET")
	admin.HandleFunc("/users/{id}/status", s.userHandler.SetStatus).Methods("PUT")
	admin.HandleFunc("/users/{id}/role", s.userHandler.SetUserRole).Methods("PUT")
	admin.HandleFunc("/whatsapp", s.notifications.GetWhatsAppConfig).Methods("GET")
	admin.HandleFunc("/whatsapp", s.notifications.UpdateWhatsAppConfig).Methods("PUT")
	admin.HandleFunc("/templates", s.notifications.GetTemplates).Methods("GET")
	admin.HandleFunc("/templates/{event}", s.notifications.UpdateTemplate).Methods("PUT")
}

// spaHandler serves files from dir and answers every other path with index.html so the
// frontend router can take over.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		// Don't log asset requests
		if !strings.HasPrefix(r.URL.Path, "/assets/") {
			log.Printf("Serving index.html for path: %s", r.URL.Path)
		}
		http.ServeFile(w, r, index)
	})
}
