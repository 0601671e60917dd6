package routes

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Dosada05/team-roster/docs"
	"github.com/Dosada05/team-roster/handlers"
	"github.com/Dosada05/team-roster/middleware"
	"github.com/Dosada05/team-roster/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

const requestTimeout = 30 * time.Second

// Deps собирает всё, что нужно роутеру.
type Deps struct {
	Logger *slog.Logger

	AuthService services.AuthService

	AuthHandler   *handlers.AuthHandler
	TeamHandler   *handlers.TeamHandler
	PlayerHandler *handlers.PlayerHandler
	HealthHandler *handlers.HealthHandler

	// StaticFiles serves locally stored assets below StoragePublicPath.
	// Nil when assets live in an external bucket.
	StaticFiles       http.Handler
	StoragePublicPath string

	CORSAllowedOrigins []string
}

func SetupRoutes(d Deps) http.Handler {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(d.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found.")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	router.Get("/health", d.HealthHandler.Health)

	router.Get("/swagger/openapi.json", docs.Handler().ServeHTTP)
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/openapi.json")))

	if d.StaticFiles != nil {
		prefix := "/" + strings.Trim(d.StoragePublicPath, "/")
		router.Get(prefix+"/*", http.StripPrefix(prefix, noDirectoryListing(d.StaticFiles)).ServeHTTP)
	}

	router.Route("/v1", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(requestTimeout))

		r.Post("/login", d.AuthHandler.Login)

		r.Get("/teams", d.TeamHandler.ListTeams)
		r.Get("/teams/{team}", d.TeamHandler.GetTeam)
		r.Get("/teams/{team}/players", d.PlayerHandler.ListPlayers)
		r.Get("/teams/{team}/players/{player}", d.PlayerHandler.GetPlayer)

		// Маршруты для любого аутентифицированного пользователя
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(d.AuthService))

			r.Delete("/session", d.AuthHandler.Logout)
			r.Get("/user", d.AuthHandler.CurrentUser)
		})

		// Изменения доступны только администраторам
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(d.AuthService))
			r.Use(middleware.RequireAdmin)

			r.Post("/teams", d.TeamHandler.CreateTeam)
			r.Put("/teams/{team}", d.TeamHandler.UpdateTeam)
			r.Delete("/teams/{team}", d.TeamHandler.DeleteTeam)

			r.Post("/teams/{team}/players", d.PlayerHandler.CreatePlayer)
			r.Put("/teams/{team}/players/{player}", d.PlayerHandler.UpdatePlayer)
			r.Delete("/teams/{team}/players/{player}", d.PlayerHandler.DeletePlayer)
		})
	})

	return router
}

// noDirectoryListing hides directory indexes of the asset root.
func noDirectoryListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			writeMessage(w, http.StatusNotFound, "Route not found.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
