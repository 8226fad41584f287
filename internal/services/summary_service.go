package services

import (
	"log"
	"math"
	"sort"
	"time"
)

// TextSampleLimit caps how many free-text answers a question summary quotes.
const TextSampleLimit = 10

// SummaryStore is the persistence surface the summary service needs.
type SummaryStore interface {
	GetSurvey(id string) (*Survey, error)
	ListQuestions(surveyID string) ([]*Question, error)
	ListResponses(surveyID string) ([]*Response, error)
	CountResponses(surveyID string) (int, error)
	CountResponsesSince(since time.Time) (int, error)
	ListSurveys() ([]*Survey, error)
}

type SummaryService struct {
	store SummaryStore
	now   func() time.Time
}

func NewSummaryService(store SummaryStore) *SummaryService {
	return &SummaryService{store: store, now: time.Now}
}

// OptionCount is one aggregated option value. Anomaly marks a value present
// in stored answers but absent from the question's declared options; such
// rows are reported, never silently dropped.
type OptionCount struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
	Anomaly bool   `json:"anomaly,omitempty"`
}

type QuestionSummary struct {
	QuestionID string        `json:"question_id"`
	Text       string        `json:"question_text"`
	Type       QuestionType  `json:"question_type"`
	Answered   int           `json:"answered"`
	NoAnswer   int           `json:"no_answer"`
	Options    []OptionCount `json:"options,omitempty"`
	Samples    []string      `json:"samples,omitempty"`
	Remaining  int           `json:"remaining,omitempty"`
}

type SurveySummary struct {
	SurveyID      string            `json:"survey_id"`
	Title         string            `json:"title"`
	ResponseCount int               `json:"response_count"`
	Questions     []QuestionSummary `json:"questions"`
	UnknownKeys   []string          `json:"unknown_keys,omitempty"`
}

// Summarize aggregates every stored response for a survey into per-question
// distributions. Choice questions list only option values actually observed,
// ordered by descending count with declared option order breaking ties.
// Free-text questions quote up to TextSampleLimit answers in completion
// order.
func (s *SummaryService) Summarize(ident Identity, surveyID string) (*SurveySummary, error) {
	if !ident.IsAdmin() {
		return nil, NewForbiddenError("admin access required")
	}
	survey, err := s.schemaFor(surveyID)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.ListResponses(surveyID)
	if err != nil {
		return nil, storeErr(err)
	}

	summary := &SurveySummary{
		SurveyID:      surveyID,
		Title:         survey.Title,
		ResponseCount: len(responses),
	}

	known := make(map[string]bool, len(survey.Questions))
	for _, q := range survey.Questions {
		known[q.ID] = true
	}
	seenUnknown := map[string]bool{}
	for _, r := range responses {
		for key := range r.Data {
			if !known[key] && !seenUnknown[key] {
				seenUnknown[key] = true
				summary.UnknownKeys = append(summary.UnknownKeys, key)
				log.Printf("summary: survey %s response %s has answer for unknown question %q", surveyID, r.ID, key)
			}
		}
	}
	sort.Strings(summary.UnknownKeys)

	for _, q := range survey.Questions {
		summary.Questions = append(summary.Questions, summarizeQuestion(q, responses))
	}
	return summary, nil
}

func summarizeQuestion(q *Question, responses []*Response) QuestionSummary {
	qs := QuestionSummary{QuestionID: q.ID, Text: q.Text, Type: q.Type}

	if q.Type.TakesOptions() {
		counts := map[string]int{}
		var anomalies []string
		seenAnomaly := map[string]bool{}
		for _, r := range responses {
			a, ok := r.Data[q.ID]
			if !ok || a.Empty() {
				qs.NoAnswer++
				continue
			}
			qs.Answered++
			values := a.Multi
			if !a.IsMulti {
				values = []string{a.Text}
			}
			for _, v := range values {
				counts[v]++
				if _, known := q.OptionLabel(v); !known && !seenAnomaly[v] {
					seenAnomaly[v] = true
					anomalies = append(anomalies, v)
				}
			}
		}
		declared := make(map[string]int, len(q.Options))
		for i, opt := range q.Options {
			declared[opt.Value] = i
			if n := counts[opt.Value]; n > 0 {
				qs.Options = append(qs.Options, OptionCount{
					Value:   opt.Value,
					Label:   opt.Label,
					Count:   n,
					Percent: percentOf(n, qs.Answered),
				})
			}
		}
		sort.SliceStable(qs.Options, func(i, j int) bool {
			if qs.Options[i].Count == qs.Options[j].Count {
				return declared[qs.Options[i].Value] < declared[qs.Options[j].Value]
			}
			return qs.Options[i].Count > qs.Options[j].Count
		})
		// Values outside the declared option set go last, flagged, in the
		// order first observed.
		for _, v := range anomalies {
			qs.Options = append(qs.Options, OptionCount{
				Value:   v,
				Label:   v,
				Count:   counts[v],
				Percent: percentOf(counts[v], qs.Answered),
				Anomaly: true,
			})
		}
		return qs
	}

	for _, r := range responses {
		a, ok := r.Data[q.ID]
		if !ok || a.Empty() {
			qs.NoAnswer++
			continue
		}
		qs.Answered++
		if len(qs.Samples) < TextSampleLimit {
			qs.Samples = append(qs.Samples, a.Text)
		}
	}
	qs.Remaining = qs.Answered - len(qs.Samples)
	return qs
}

func percentOf(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

// Stats is the admin dashboard rollup: response totals per builtin survey,
// custom survey totals, and activity over the trailing week.
type Stats struct {
	ProfileResponses  int `json:"profile_responses"`
	BeerResponses     int `json:"beer_responses"`
	SnacksResponses   int `json:"snacks_responses"`
	CustomSurveys     int `json:"custom_surveys"`
	PublishedSurveys  int `json:"published_surveys"`
	CustomResponses   int `json:"custom_responses"`
	ResponsesThisWeek int `json:"responses_this_week"`
}

func (s *SummaryService) Stats(ident Identity) (*Stats, error) {
	if !ident.IsAdmin() {
		return nil, NewForbiddenError("admin access required")
	}
	st := &Stats{}
	var err error
	if st.ProfileResponses, err = s.store.CountResponses(BuiltinProfile); err != nil {
		return nil, storeErr(err)
	}
	if st.BeerResponses, err = s.store.CountResponses(BuiltinBeer); err != nil {
		return nil, storeErr(err)
	}
	if st.SnacksResponses, err = s.store.CountResponses(BuiltinSnacks); err != nil {
		return nil, storeErr(err)
	}
	surveys, err := s.store.ListSurveys()
	if err != nil {
		return nil, storeErr(err)
	}
	st.CustomSurveys = len(surveys)
	for _, sv := range surveys {
		if sv.Status == StatusPublished {
			st.PublishedSurveys++
		}
		n, err := s.store.CountResponses(sv.ID)
		if err != nil {
			return nil, storeErr(err)
		}
		st.CustomResponses += n
	}
	week, err := s.store.CountResponsesSince(s.now().Add(-7 * 24 * time.Hour))
	if err != nil {
		return nil, storeErr(err)
	}
	st.ResponsesThisWeek = week
	return st, nil
}

func (s *SummaryService) schemaFor(id string) (*Survey, error) {
	if builtin := BuiltinSurvey(id); builtin != nil {
		return builtin, nil
	}
	survey, err := s.store.GetSurvey(id)
	if err != nil {
		return nil, storeErr(err)
	}
	if survey == nil {
		return nil, NewNotFoundError("survey not found")
	}
	if len(survey.Questions) == 0 {
		qs, err := s.store.ListQuestions(id)
		if err != nil {
			return nil, storeErr(err)
		}
		survey.Questions = qs
	}
	survey.SortQuestions()
	return survey, nil
}
