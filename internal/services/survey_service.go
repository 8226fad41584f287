package services

import (
	"strings"
	"time"
)

// SurveyStore is the persistence surface the survey service needs.
type SurveyStore interface {
	InsertSurvey(s *Survey) error
	InsertQuestions(qs []*Question) error
	GetSurvey(id string) (*Survey, error)
	ListSurveys() ([]*Survey, error)
	UpdateSurveyStatus(id string, status SurveyStatus, publishedAt *time.Time) error
	DeleteSurvey(id string) error
	ListQuestions(surveyID string) ([]*Question, error)
	GetResponse(surveyID, userID string) (*Response, error)
	ListResponses(surveyID string) ([]*Response, error)
	CountResponses(surveyID string) (int, error)
}

type SurveyService struct {
	store SurveyStore
	now   func() time.Time
	idGen func() string
}

func NewSurveyService(store SurveyStore) *SurveyService {
	return &SurveyService{
		store: store,
		now:   time.Now,
		idGen: func() string { return shortID(12) },
	}
}

// QuestionDraft is the author-supplied shape of one question. Position is
// taken from slice order, not from the draft.
type QuestionDraft struct {
	Text     string           `json:"question_text"`
	Subtitle string           `json:"question_subtitle,omitempty"`
	Type     QuestionType     `json:"question_type"`
	Options  []QuestionOption `json:"options,omitempty"`
	Required bool             `json:"is_required"`
}

// SurveyDraft is the author-supplied shape of a new survey.
type SurveyDraft struct {
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Introduction string          `json:"introduction"`
	Audience     Audience        `json:"target_audience"`
	Questions    []QuestionDraft `json:"questions"`
}

// SurveyOverview pairs a survey with its response count for admin listings.
type SurveyOverview struct {
	*Survey
	ResponseCount int `json:"response_count"`
}

// Create validates a draft and persists it with status draft. Question
// positions are assigned 1..n from slice order.
func (s *SurveyService) Create(ident Identity, draft SurveyDraft) (*Survey, error) {
	if !ident.IsAdmin() {
		return nil, NewForbiddenError("admin access required")
	}
	if strings.TrimSpace(draft.Title) == "" {
		return nil, NewInvalidError("survey title required")
	}
	if draft.Audience == "" {
		draft.Audience = AudienceAll
	}
	if !draft.Audience.Valid() {
		return nil, NewInvalidError("unknown target audience " + string(draft.Audience))
	}
	if len(draft.Questions) == 0 {
		return nil, NewInvalidError("a survey needs at least one question")
	}

	survey := &Survey{
		ID:           s.idGen(),
		Title:        strings.TrimSpace(draft.Title),
		Description:  strings.TrimSpace(draft.Description),
		Introduction: strings.TrimSpace(draft.Introduction),
		Status:       StatusDraft,
		Audience:     draft.Audience,
		CreatedBy:    ident.UserID,
		CreatedAt:    s.now(),
	}
	for i, qd := range draft.Questions {
		q := &Question{
			ID:         s.idGen(),
			SurveyID:   survey.ID,
			Text:       strings.TrimSpace(qd.Text),
			Subtitle:   strings.TrimSpace(qd.Subtitle),
			Type:       qd.Type,
			Options:    qd.Options,
			Required:   qd.Required,
			OrderIndex: i + 1,
		}
		if err := q.Validate(); err != nil {
			return nil, err
		}
		survey.Questions = append(survey.Questions, q)
	}

	if err := s.store.InsertSurvey(survey); err != nil {
		return nil, storeErr(err)
	}
	if err := s.store.InsertQuestions(survey.Questions); err != nil {
		return nil, storeErr(err)
	}
	return survey, nil
}

// Publish moves a draft survey to published and stamps the publication time.
// The stamp is written once; republishing is not a legal transition.
func (s *SurveyService) Publish(ident Identity, id string) (*Survey, error) {
	return s.transition(ident, id, StatusPublished)
}

// Archive retires a survey. Archived surveys stop appearing in participant
// listings but keep their responses for analysis.
func (s *SurveyService) Archive(ident Identity, id string) (*Survey, error) {
	return s.transition(ident, id, StatusArchived)
}

func (s *SurveyService) transition(ident Identity, id string, next SurveyStatus) (*Survey, error) {
	if !ident.IsAdmin() {
		return nil, NewForbiddenError("admin access required")
	}
	if IsBuiltinSurvey(id) {
		return nil, NewInvalidError("builtin surveys have a fixed lifecycle")
	}
	survey, err := s.loadSurvey(id)
	if err != nil {
		return nil, err
	}
	if !survey.Status.CanTransitionTo(next) {
		return nil, NewConflictError("cannot move survey from " + string(survey.Status) + " to " + string(next))
	}
	survey.Status = next
	var publishedAt *time.Time
	if next == StatusPublished {
		t := s.now()
		publishedAt = &t
		survey.PublishedAt = &t
	} else {
		publishedAt = survey.PublishedAt
	}
	if err := s.store.UpdateSurveyStatus(id, next, publishedAt); err != nil {
		return nil, storeErr(err)
	}
	return survey, nil
}

// Delete removes a survey along with its questions and responses.
func (s *SurveyService) Delete(ident Identity, id string) error {
	if !ident.IsAdmin() {
		return NewForbiddenError("admin access required")
	}
	if IsBuiltinSurvey(id) {
		return NewInvalidError("builtin surveys cannot be deleted")
	}
	if _, err := s.loadSurvey(id); err != nil {
		return err
	}
	return storeErr(s.store.DeleteSurvey(id))
}

// ListForAudience returns the published surveys the caller may take:
// audience matches the caller's group (or targets everyone) and the caller
// has not responded yet.
func (s *SurveyService) ListForAudience(ident Identity) ([]*Survey, error) {
	all, err := s.store.ListSurveys()
	if err != nil {
		return nil, storeErr(err)
	}
	group := ident.AudienceGroup(s.now())
	out := []*Survey{}
	for _, sv := range all {
		if sv.Status != StatusPublished {
			continue
		}
		if sv.Audience != AudienceAll && sv.Audience != group {
			continue
		}
		resp, err := s.store.GetResponse(sv.ID, ident.UserID)
		if err != nil {
			return nil, storeErr(err)
		}
		if resp != nil {
			continue
		}
		out = append(out, sv)
	}
	return out, nil
}

// ListAll returns every survey with its response count, newest first as the
// store orders them.
func (s *SurveyService) ListAll(ident Identity) ([]*SurveyOverview, error) {
	if !ident.IsAdmin() {
		return nil, NewForbiddenError("admin access required")
	}
	all, err := s.store.ListSurveys()
	if err != nil {
		return nil, storeErr(err)
	}
	out := make([]*SurveyOverview, 0, len(all))
	for _, sv := range all {
		n, err := s.store.CountResponses(sv.ID)
		if err != nil {
			return nil, storeErr(err)
		}
		out = append(out, &SurveyOverview{Survey: sv, ResponseCount: n})
	}
	return out, nil
}

// GetForTaking loads the survey a participant is about to fill in, along
// with any prior response. Builtin surveys are editable, so a prior response
// comes back as the wizard's starting answers. Custom surveys are
// answer-once: an existing response is a conflict. Audience targeting gates
// here too: a survey hidden from the caller's listing is equally
// unavailable by direct id.
func (s *SurveyService) GetForTaking(ident Identity, id string) (*Survey, *Response, error) {
	if builtin := BuiltinSurvey(id); builtin != nil {
		prior, err := s.store.GetResponse(id, ident.UserID)
		if err != nil {
			return nil, nil, storeErr(err)
		}
		return builtin, prior, nil
	}
	survey, err := s.loadSurvey(id)
	if err != nil {
		return nil, nil, err
	}
	if survey.Status != StatusPublished {
		return nil, nil, NewNotFoundError("survey not found or not available")
	}
	if survey.Audience != AudienceAll && survey.Audience != ident.AudienceGroup(s.now()) {
		return nil, nil, NewNotFoundError("survey not found or not available")
	}
	prior, err := s.store.GetResponse(id, ident.UserID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	if prior != nil {
		return nil, nil, NewConflictError("you have already completed this survey")
	}
	return survey, nil, nil
}

// GetWithResponses loads a survey plus every response, for the admin detail
// view. Works for builtin surveys too. The store lists oldest first, which
// aggregation sampling depends on; this view wants the latest activity on
// top, so the order is reversed here.
func (s *SurveyService) GetWithResponses(ident Identity, id string) (*Survey, []*Response, error) {
	if !ident.IsAdmin() {
		return nil, nil, NewForbiddenError("admin access required")
	}
	survey, err := s.schemaFor(id)
	if err != nil {
		return nil, nil, err
	}
	responses, err := s.store.ListResponses(id)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	for i, j := 0, len(responses)-1; i < j; i, j = i+1, j-1 {
		responses[i], responses[j] = responses[j], responses[i]
	}
	return survey, responses, nil
}

// ResearchTopic is one entry in the participant research listing.
type ResearchTopic struct {
	*Survey
	Completed bool `json:"completed"`
}

// ListResearchTopics returns the fixed research surveys with the caller's
// completion state. The profile survey is not a research topic.
func (s *SurveyService) ListResearchTopics(ident Identity) ([]*ResearchTopic, error) {
	out := make([]*ResearchTopic, 0, 2)
	for _, id := range []string{BuiltinBeer, BuiltinSnacks} {
		sv := BuiltinSurvey(id)
		resp, err := s.store.GetResponse(id, ident.UserID)
		if err != nil {
			return nil, storeErr(err)
		}
		out = append(out, &ResearchTopic{Survey: sv, Completed: resp != nil})
	}
	return out, nil
}

// schemaFor resolves a survey id to its full schema, builtin or stored.
func (s *SurveyService) schemaFor(id string) (*Survey, error) {
	if builtin := BuiltinSurvey(id); builtin != nil {
		return builtin, nil
	}
	return s.loadSurvey(id)
}

func (s *SurveyService) loadSurvey(id string) (*Survey, error) {
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
