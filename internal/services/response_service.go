package services

import "time"

// ResponseStore is the persistence surface the response service needs.
type ResponseStore interface {
	GetSurvey(id string) (*Survey, error)
	ListQuestions(surveyID string) ([]*Question, error)
	UpsertResponse(r *Response) (*Response, error)
	GetResponse(surveyID, userID string) (*Response, error)
}

type ResponseService struct {
	store ResponseStore
	now   func() time.Time
	idGen func() string
}

func NewResponseService(store ResponseStore) *ResponseService {
	return &ResponseService{
		store: store,
		now:   time.Now,
		idGen: func() string { return shortID(12) },
	}
}

// Submit validates a full answer set against the survey's schema and upserts
// it on the (survey, user) composite key. Questions missing from data get
// the explicit "no answer" marker; keys naming no schema question are
// rejected. Resubmitting replaces the stored answers and refreshes the
// completion time, keeping the original row id. Audience targeting gates
// the write path the same way it gates fetching, so a hidden survey cannot
// be answered by posting straight to it.
func (s *ResponseService) Submit(ident Identity, surveyID string, data ResponseData) (*Response, error) {
	survey, err := s.schemaFor(surveyID)
	if err != nil {
		return nil, err
	}
	if !IsBuiltinSurvey(surveyID) {
		if survey.Status != StatusPublished {
			return nil, NewNotFoundError("survey not found or not available")
		}
		if survey.Audience != AudienceAll && survey.Audience != ident.AudienceGroup(s.now()) {
			return nil, NewNotFoundError("survey not found or not available")
		}
	}

	for key := range data {
		if survey.QuestionByID(key) == nil {
			return nil, NewFieldError(key, "no such question in this survey")
		}
	}
	full := make(ResponseData, len(survey.Questions))
	for _, q := range survey.Questions {
		a, ok := data[q.ID]
		if !ok {
			a = q.NoAnswerValue()
		}
		if err := ValidateAnswer(q, a); err != nil {
			return nil, err
		}
		full[q.ID] = a
	}

	resp := &Response{
		ID:          s.idGen(),
		SurveyID:    surveyID,
		UserID:      ident.UserID,
		Data:        full,
		CompletedAt: s.now(),
	}
	stored, err := s.store.UpsertResponse(resp)
	if err != nil {
		return nil, storeErr(err)
	}
	return stored, nil
}

// SubmitFuncFor adapts Submit to the wizard's submit signature.
func (s *ResponseService) SubmitFuncFor(ident Identity) SubmitFunc {
	return func(surveyID, _ string, data ResponseData) (*Response, error) {
		return s.Submit(ident, surveyID, data)
	}
}

// GetOwn returns the caller's response to a survey, or not found.
func (s *ResponseService) GetOwn(ident Identity, surveyID string) (*Response, error) {
	resp, err := s.store.GetResponse(surveyID, ident.UserID)
	if err != nil {
		return nil, storeErr(err)
	}
	if resp == nil {
		return nil, NewNotFoundError("no response recorded for this survey")
	}
	return resp, nil
}

func (s *ResponseService) schemaFor(id string) (*Survey, error) {
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
