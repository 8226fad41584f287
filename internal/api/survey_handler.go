package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tasterr/tasterr/internal/cache"
	"github.com/tasterr/tasterr/internal/middleware"
	"github.com/tasterr/tasterr/internal/services"
)

// surveyHandler serves the participant-facing survey endpoints. All of them
// run behind RequireAuth, so a missing identity is a programming error and
// comes back as internal.
type surveyHandler struct {
	surveys   *services.SurveyService
	responses *services.ResponseService
	summaries cache.SummaryCache // nil when caching is disabled
}

type takeSurveyResponse struct {
	Survey        *services.Survey   `json:"survey"`
	PriorResponse *services.Response `json:"prior_response,omitempty"`
	TotalSteps    int                `json:"total_steps"`
}

func (h *surveyHandler) list(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, services.NewUnauthorizedError("authentication required"))
		return
	}
	surveys, err := h.surveys.ListForAudience(ident)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, surveys)
}

func (h *surveyHandler) get(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, services.NewUnauthorizedError("authentication required"))
		return
	}
	id := mux.Vars(r)["id"]
	survey, prior, err := h.surveys.GetForTaking(ident, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, takeSurveyResponse{
		Survey:        survey,
		PriorResponse: prior,
		TotalSteps:    len(survey.Questions),
	})
}

func (h *surveyHandler) submit(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, services.NewUnauthorizedError("authentication required"))
		return
	}
	id := mux.Vars(r)["id"]
	var data services.ResponseData
	if !decodeBody(w, r, &data) {
		return
	}
	resp, err := h.responses.Submit(ident, id, data)
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidateSummary(r, id)
	writeJSON(w, http.StatusOK, resp)
}

func (h *surveyHandler) getOwnResponse(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, services.NewUnauthorizedError("authentication required"))
		return
	}
	resp, err := h.responses.GetOwn(ident, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// researchTopics lists the fixed research surveys with completion state.
func (h *surveyHandler) researchTopics(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, services.NewUnauthorizedError("authentication required"))
		return
	}
	topics, err := h.surveys.ListResearchTopics(ident)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (h *surveyHandler) getResearch(w http.ResponseWriter, r *http.Request) {
	r = requestWithResearchID(w, r)
	if r == nil {
		return
	}
	h.get(w, r)
}

func (h *surveyHandler) submitResearch(w http.ResponseWriter, r *http.Request) {
	r = requestWithResearchID(w, r)
	if r == nil {
		return
	}
	h.submit(w, r)
}

// requestWithResearchID validates the topic segment and rewrites it into the
// id route variable the shared handlers read. Every builtin survey is a
// legal topic, the profile included; custom surveys are not reachable here.
func requestWithResearchID(w http.ResponseWriter, r *http.Request) *http.Request {
	topic := mux.Vars(r)["topic"]
	if !services.IsBuiltinSurvey(topic) {
		writeError(w, services.NewNotFoundError("unknown research topic"))
		return nil
	}
	return mux.SetURLVars(r, map[string]string{"id": topic})
}

func (h *surveyHandler) invalidateSummary(r *http.Request, surveyID string) {
	if h.summaries == nil {
		return
	}
	if err := h.summaries.Invalidate(r.Context(), surveyID); err != nil {
		logCacheErr("invalidate", surveyID, err)
	}
}
