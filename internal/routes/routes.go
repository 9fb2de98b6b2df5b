package routes

import (
	"net/http"

	"github.com/resto-rate/api/internal/app"
	"github.com/resto-rate/api/internal/handler"
	"github.com/resto-rate/api/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB, app.Cfg.DBDriver, app.Cfg.AppEnv)
	auth := handler.NewAuthHandler(app.AuthService)
	users := handler.NewUserHandler(app.UserService)
	restaurants := handler.NewRestaurantHandler(app.RestaurantService, app.ReviewService)
	reviews := handler.NewReviewHandler(app.ReviewService, app.Cfg.PhotoMaxUploadBytes)
	categories := handler.NewCategoryHandler(app.CategoryService)

	sessions := middleware.NewAuth(app.SessionService)
	requireAuth := sessions.RequireAuth
	optionalAuth := sessions.OptionalAuth

	// Credential endpoints are rate limited per client IP
	rateLimit := middleware.RateLimit(app.AuthLimiter, app.TrustedProxies)

	mux := http.NewServeMux()

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)
	if app.Metrics != nil {
		mux.Handle("GET /metrics", app.Metrics.Handler())
	}

	// ============================================================================
	// AUTH (/api/auth)
	// ============================================================================

	mux.HandleFunc("POST /api/auth/login", rateLimit(auth.Login))
	mux.HandleFunc("POST /api/auth/register", rateLimit(auth.Register))
	mux.HandleFunc("GET /api/auth/google/url", auth.GoogleURL)
	mux.HandleFunc("GET /api/auth/google/callback", rateLimit(auth.GoogleCallback))
	mux.HandleFunc("GET /api/auth/verify", requireAuth(auth.Verify))
	mux.HandleFunc("GET /api/auth/session/{id}", auth.Session)
	mux.HandleFunc("DELETE /api/auth/logout", requireAuth(auth.Logout))

	// ============================================================================
	// USERS (/api/users)
	// ============================================================================

	mux.HandleFunc("GET /api/users", optionalAuth(users.List))
	mux.HandleFunc("POST /api/users", rateLimit(users.Create))
	mux.HandleFunc("GET /api/users/me/profile", requireAuth(users.Me))
	mux.HandleFunc("GET /api/users/{id}", optionalAuth(users.Get))
	mux.HandleFunc("PUT /api/users/{id}", requireAuth(users.Update))
	mux.HandleFunc("DELETE /api/users/{id}", requireAuth(users.Delete))

	// ============================================================================
	// RESTAURANTS (/api/restaurants)
	// ============================================================================

	mux.HandleFunc("GET /api/restaurants", optionalAuth(restaurants.List))
	mux.HandleFunc("POST /api/restaurants", requireAuth(restaurants.Create))
	mux.HandleFunc("GET /api/restaurants/{id}", optionalAuth(restaurants.Get))
	mux.HandleFunc("PUT /api/restaurants/{id}", requireAuth(restaurants.Update))
	mux.HandleFunc("DELETE /api/restaurants/{id}", requireAuth(restaurants.Delete))
	mux.HandleFunc("GET /api/restaurants/{id}/categories", restaurants.Categories)
	mux.HandleFunc("PUT /api/restaurants/{id}/categories", requireAuth(restaurants.SetCategories))
	mux.HandleFunc("GET /api/restaurants/{id}/reviews", optionalAuth(restaurants.Reviews))
	mux.HandleFunc("POST /api/restaurants/{id}/reviews", requireAuth(restaurants.CreateReview))

	// ============================================================================
	// REVIEWS (/api/reviews)
	// ============================================================================

	mux.HandleFunc("GET /api/reviews/{id}", reviews.Get)
	mux.HandleFunc("PUT /api/reviews/{id}", requireAuth(reviews.Update))
	mux.HandleFunc("DELETE /api/reviews/{id}", requireAuth(reviews.Delete))
	mux.HandleFunc("POST /api/reviews/{id}/helpful", requireAuth(reviews.Helpful))
	mux.HandleFunc("POST /api/reviews/{id}/photos", requireAuth(reviews.UploadPhoto))
	mux.HandleFunc("DELETE /api/reviews/{id}/photos/{photoId}", requireAuth(reviews.DeletePhoto))

	// ============================================================================
	// CATEGORIES (/api/categories)
	// ============================================================================

	mux.HandleFunc("GET /api/categories", categories.List)
	mux.HandleFunc("GET /api/categories/{slug}", categories.Get)
	mux.HandleFunc("POST /api/categories", requireAuth(categories.Create))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc(fallbackPattern, fallback(mux))

	// Global middleware - executed in order (top to bottom)
	middlewares := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RequestLogging,
		middleware.SecurityHeaders(app.Cfg.IsProduction()),
		middleware.CORS(app.Cfg.CORSOrigins),
	}
	if app.Metrics != nil {
		// Must wrap the mux directly to see the matched pattern
		middlewares = append(middlewares, app.Metrics.Middleware)
	}

	return middleware.Chain(mux, middlewares...)
}

const fallbackPattern = "/{path...}"

var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

// fallback answers requests no route matched. A path registered under other
// methods gets a 405 with an Allow header, anything else a 404.
func fallback(mux *http.ServeMux) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var allowed []string
		for _, method := range routeMethods {
			if method == r.Method {
				continue
			}
			alt := r.Clone(r.Context())
			alt.Method = method
			if _, pattern := mux.Handler(alt); pattern != "" && pattern != fallbackPattern {
				allowed = append(allowed, method)
			}
		}
		if len(allowed) == 0 {
			handler.NotFound(w, r)
			return
		}
		handler.MethodNotAllowed(w, r, allowed)
	}
}
