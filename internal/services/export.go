package services

import (
	"bytes"
	"encoding/csv"
	"strings"
	"time"
)

// ExportStore is the persistence surface the export service needs.
type ExportStore interface {
	GetSurvey(id string) (*Survey, error)
	ListQuestions(surveyID string) ([]*Question, error)
	ListResponses(surveyID string) ([]*Response, error)
}

type ExportService struct {
	store ExportStore
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{store: store}
}

// ExportResponsesCSV renders all responses to a survey as a wide CSV: one
// row per response, one column per question in position order. Choice
// answers are rendered as their display labels (raw value when the label is
// unknown); multi selections are joined with " | ".
func (s *ExportService) ExportResponsesCSV(ident Identity, surveyID string) ([]byte, error) {
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

	header := []string{"user_id", "completed_at"}
	for _, q := range survey.Questions {
		header = append(header, q.Text)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range responses {
		row := []string{r.UserID, r.CompletedAt.UTC().Format(time.RFC3339)}
		for _, q := range survey.Questions {
			row = append(row, renderAnswer(q, r.Data[q.ID]))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderAnswer(q *Question, a Answer) string {
	if a.Empty() {
		return ""
	}
	if a.IsMulti {
		labels := make([]string, 0, len(a.Multi))
		for _, v := range a.Multi {
			labels = append(labels, labelOrValue(q, v))
		}
		return strings.Join(labels, " | ")
	}
	if q.Type.TakesOptions() {
		return labelOrValue(q, a.Text)
	}
	return a.Text
}

func labelOrValue(q *Question, v string) string {
	if label, ok := q.OptionLabel(v); ok {
		return label
	}
	return v
}

func (s *ExportService) schemaFor(id string) (*Survey, error) {
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
