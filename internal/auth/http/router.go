package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/auth/service"
	"github.com/aussiebroadwan/stockdesk/internal/auth/store"
	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
	"github.com/aussiebroadwan/stockdesk/pkg/httpx"
	"github.com/aussiebroadwan/stockdesk/pkg/jwtx"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"

	_ "github.com/aussiebroadwan/stockdesk/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	limits       httpx.Limits

	store       store.Store
	AuthService *service.AuthService
	UserService *service.UserService
	FaceService *service.FaceService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	limits httpx.Limits,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		limits:       limits,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Stockdesk Authentication Service API
//	@version		0.1.0
//	@description	Password login, face verification and account registration for the stockdesk console.
//	@description
//	@description				Access tokens are EdDSA-signed JWTs. The console reads the exp claim to log out locally.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/stockdesk
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// Keyed on IP + email to slow password guessing against one account.
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(&LoginHandler{AuthService: r.AuthService},
			httpx.PerClientAndField(r.limits.Login, "email"),
		),
	)

	// Same key; each call also hashes an image.
	r.Mux.Handle("POST /auth/verify-face",
		httpx.Chain(&VerifyFaceHandler{FaceService: r.FaceService},
			httpx.PerClientAndField(r.limits.Face, "email"),
		),
	)

	// The console calls this on every token change.
	r.Mux.Handle("GET /auth/me",
		httpx.Chain(&MeHandler{UserService: r.UserService},
			httpx.AuthnMiddleware(r.verifier),
			httpx.PerUser(r.limits.Profile),
		),
	)
}

func (r *Router) registerUsers() {
	r.Mux.Handle("POST /auth/register/user",
		httpx.Chain(&RegisterUserHandler{UserService: r.UserService},
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(authsdk.RoleAdmin),
			httpx.PerUser(r.limits.Register),
		),
	)
}

func (r *Router) registerSystem() {
	// Monitoring may poll these often.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.PerClient(r.limits.Health),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.PerClient(r.limits.Health),
		),
	)
}
