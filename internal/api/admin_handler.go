package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tasterr/tasterr/internal/cache"
	"github.com/tasterr/tasterr/internal/middleware"
	"github.com/tasterr/tasterr/internal/services"
)

// adminHandler serves the researcher endpoints. RequireAdmin runs in front
// of every route; the services check the role again.
type adminHandler struct {
	surveys   *services.SurveyService
	summaries *services.SummaryService
	exports   *services.ExportService
	cache     cache.SummaryCache // nil when caching is disabled
}

func (h *adminHandler) createSurvey(w http.ResponseWriter, r *http.Request) {
	ident, _ := middleware.IdentityFromContext(r.Context())
	var draft services.SurveyDraft
	if !decodeBody(w, r, &draft) {
		return
	}
	survey, err := h.surveys.Create(ident, draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, survey)
}

func (h *adminHandler) listSurveys(w http.ResponseWriter, r *http.Request) {
	ident, _ := middleware.IdentityFromContext(r.Context())
	overviews, err := h.surveys.ListAll(ident)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overviews)
}

func (h *adminHandler) publishSurvey(w http.ResponseWriter, r *http.Request) {
	ident, _ := middleware.IdentityFromContext(r.Context())
	survey, err := h.surveys.Publish(ident, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

func (h *adminHandler) archiveSurvey(w http.ResponseWriter, r *http.Request) {
	ident, _ := middleware.IdentityFromContext(r.Context())
	survey, err := h.surveys.Archive(ident, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, survey)
}

func (h *adminHandler) deleteSurvey(w http.ResponseWriter, r *http.Request) {
	ident, _ := middleware.IdentityFromContext(r.Context())
	id := mux.Vars(r)["id"]
	if err := h.surveys.Delete(ident, id); err != nil {
		writeError(w, err)
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context(), id); err != nil {
			logCacheErr("invalidate", id, err)
		}
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type surveyResponsesResponse struct {
	Survey        *services.Survey     `json:"survey"`
	ResponseCount int                  `json:"response_count"`
	Responses     []*services.Response `json:"responses"`
}

func (h *adminHandler) listResponses(w http.ResponseWriter, r *http.Request) {
	ident, _ := middleware.IdentityFromContext(r.Context())
	survey, responses, err := h.surveys.GetWithResponses(ident, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, surveyResponsesResponse{
		Survey:        survey,
		ResponseCount: len(responses),
		Responses:     responses,
	})
}

// summary serves the aggregated view, read through the cache when one is
// configured. Cache failures degrade to a direct rebuild.
func (h *adminHandler) summary(w http.ResponseWriter, r *http.Request) {
	ident, _ := middleware.IdentityFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if h.cache != nil {
		cached, err := h.cache.Get(r.Context(), id)
		if err != nil {
			logCacheErr("get", id, err)
		} else if cached != nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}
	summary, err := h.summaries.Summarize(ident, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.cache != nil {
		if err := h.cache.Set(r.Context(), summary); err != nil {
			logCacheErr("set", id, err)
		}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *adminHandler) export(w http.ResponseWriter, r *http.Request) {
	ident, _ := middleware.IdentityFromContext(r.Context())
	id := mux.Vars(r)["id"]
	data, err := h.exports.ExportResponsesCSV(ident, id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+"_responses.csv"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *adminHandler) stats(w http.ResponseWriter, r *http.Request) {
	ident, _ := middleware.IdentityFromContext(r.Context())
	st, err := h.summaries.Stats(ident)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func logCacheErr(op, surveyID string, err error) {
	log.Printf("api: summary cache %s for %s: %v", op, surveyID, err)
}
