package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tasterr/tasterr/internal/cache"
	"github.com/tasterr/tasterr/internal/middleware"
	"github.com/tasterr/tasterr/internal/services"
)

// Deps carries everything the router wires together. SummaryCache may be
// nil; every consumer checks.
type Deps struct {
	Auth         *services.AuthService
	Surveys      *services.SurveyService
	Responses    *services.ResponseService
	Summaries    *services.SummaryService
	Exports      *services.ExportService
	SummaryCache cache.SummaryCache

	JWTSecret      []byte
	AllowedOrigins []string
}

func NewRouter(deps Deps) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	auth := &authHandler{auth: deps.Auth}
	r.HandleFunc("/api/auth/register", auth.register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", auth.login).Methods(http.MethodPost)

	// The admin prefix nests under /api, so it has to be registered first:
	// a subrouter whose prefix matches never falls through to later routes.
	admin := &adminHandler{
		surveys:   deps.Surveys,
		summaries: deps.Summaries,
		exports:   deps.Exports,
		cache:     deps.SummaryCache,
	}
	adm := r.PathPrefix("/api/admin").Subrouter()
	adm.Use(middleware.RequireAdmin)
	adm.HandleFunc("/surveys", admin.createSurvey).Methods(http.MethodPost)
	adm.HandleFunc("/surveys", admin.listSurveys).Methods(http.MethodGet)
	adm.HandleFunc("/surveys/{id}/publish", admin.publishSurvey).Methods(http.MethodPost)
	adm.HandleFunc("/surveys/{id}/archive", admin.archiveSurvey).Methods(http.MethodPost)
	adm.HandleFunc("/surveys/{id}", admin.deleteSurvey).Methods(http.MethodDelete)
	adm.HandleFunc("/surveys/{id}/responses", admin.listResponses).Methods(http.MethodGet)
	adm.HandleFunc("/surveys/{id}/summary", admin.summary).Methods(http.MethodGet)
	adm.HandleFunc("/surveys/{id}/export", admin.export).Methods(http.MethodGet)
	adm.HandleFunc("/stats", admin.stats).Methods(http.MethodGet)

	surveys := &surveyHandler{
		surveys:   deps.Surveys,
		responses: deps.Responses,
		summaries: deps.SummaryCache,
	}
	user := r.PathPrefix("/api").Subrouter()
	user.Use(middleware.RequireAuth)
	user.HandleFunc("/auth/me", auth.me).Methods(http.MethodGet)
	user.HandleFunc("/surveys", surveys.list).Methods(http.MethodGet)
	user.HandleFunc("/surveys/{id}", surveys.get).Methods(http.MethodGet)
	user.HandleFunc("/surveys/{id}/response", surveys.submit).Methods(http.MethodPut)
	user.HandleFunc("/surveys/{id}/response", surveys.getOwnResponse).Methods(http.MethodGet)
	user.HandleFunc("/research", surveys.researchTopics).Methods(http.MethodGet)
	user.HandleFunc("/research/{topic}", surveys.getResearch).Methods(http.MethodGet)
	user.HandleFunc("/research/{topic}/response", surveys.submitResearch).Methods(http.MethodPut)

	chain := middleware.CORS(deps.AllowedOrigins)(
		middleware.SecureHeaders(
			middleware.WithAuth(deps.JWTSecret)(r)))
	return chain
}
