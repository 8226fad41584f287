package services

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

type SurveyStatus string

const (
	StatusDraft     SurveyStatus = "draft"
	StatusPublished SurveyStatus = "published"
	StatusArchived  SurveyStatus = "archived"
)

func (s SurveyStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

func statusRank(s SurveyStatus) int {
	switch s {
	case StatusDraft:
		return 0
	case StatusPublished:
		return 1
	case StatusArchived:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether the lifecycle may move from s to next.
// Transitions only run forward: draft -> published -> archived.
func (s SurveyStatus) CanTransitionTo(next SurveyStatus) bool {
	return next.Valid() && statusRank(next) > statusRank(s)
}

type Audience string

const (
	AudienceAll           Audience = "all"
	AudienceNewUsers      Audience = "new_users"
	AudienceExistingUsers Audience = "existing_users"
)

func (a Audience) Valid() bool {
	switch a {
	case AudienceAll, AudienceNewUsers, AudienceExistingUsers:
		return true
	}
	return false
}

type QuestionType string

const (
	QuestionShortText    QuestionType = "short_text"
	QuestionLongText     QuestionType = "long_text"
	QuestionNumber       QuestionType = "number"
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionMultiChoice  QuestionType = "multi_choice"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionShortText, QuestionLongText, QuestionNumber, QuestionSingleChoice, QuestionMultiChoice:
		return true
	}
	return false
}

// TakesOptions reports whether the type carries a closed option set.
func (t QuestionType) TakesOptions() bool {
	return t == QuestionSingleChoice || t == QuestionMultiChoice
}

type QuestionOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type Question struct {
	ID         string           `json:"id"`
	SurveyID   string           `json:"survey_id"`
	Text       string           `json:"question_text"`
	Subtitle   string           `json:"question_subtitle,omitempty"`
	Type       QuestionType     `json:"question_type"`
	Options    []QuestionOption `json:"options,omitempty"`
	Required   bool             `json:"is_required"`
	OrderIndex int              `json:"order_index"`
}

// Validate enforces the construction invariants: a known type, a non-empty
// prompt, at least one option with unique values for choice types, and no
// options at all for the others.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return NewInvalidError("question text required")
	}
	if !q.Type.Valid() {
		return NewInvalidError("unknown question type " + strconv.Quote(string(q.Type)))
	}
	if q.Type.TakesOptions() {
		if len(q.Options) == 0 {
			return NewInvalidError("question " + strconv.Quote(q.Text) + " requires at least one option")
		}
		seen := map[string]bool{}
		for _, opt := range q.Options {
			if strings.TrimSpace(opt.Value) == "" {
				return NewInvalidError("question " + strconv.Quote(q.Text) + " has an option with an empty value")
			}
			if seen[opt.Value] {
				return NewInvalidError("question " + strconv.Quote(q.Text) + " has duplicate option value " + strconv.Quote(opt.Value))
			}
			seen[opt.Value] = true
		}
		return nil
	}
	if len(q.Options) > 0 {
		return NewInvalidError("question type " + string(q.Type) + " does not take options")
	}
	return nil
}

// OptionLabel resolves a stored value to its display label.
func (q *Question) OptionLabel(value string) (string, bool) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt.Label, true
		}
	}
	return "", false
}

// NoAnswerValue is the explicit "no answer" marker for this question: an
// empty list for multi-choice, an empty string otherwise. Distinguished from
// a question that was never reached only by its presence in the map.
func (q *Question) NoAnswerValue() Answer {
	if q.Type == QuestionMultiChoice {
		return MultiAnswer()
	}
	return TextAnswer("")
}

type Survey struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Introduction string       `json:"introduction"`
	Status       SurveyStatus `json:"status"`
	Audience     Audience     `json:"target_audience"`
	CreatedBy    string       `json:"created_by"`
	CreatedAt    time.Time    `json:"created_at"`
	PublishedAt  *time.Time   `json:"published_at,omitempty"`
	Questions    []*Question  `json:"questions,omitempty"`
}

// SortQuestions orders questions by ascending position, id as tie-break.
// Presentation order is always ascending position; nothing ever reorders.
func (s *Survey) SortQuestions() {
	sort.SliceStable(s.Questions, func(i, j int) bool {
		if s.Questions[i].OrderIndex == s.Questions[j].OrderIndex {
			return s.Questions[i].ID < s.Questions[j].ID
		}
		return s.Questions[i].OrderIndex < s.Questions[j].OrderIndex
	})
}

func (s *Survey) QuestionByID(id string) *Question {
	for _, q := range s.Questions {
		if q.ID == id {
			return q
		}
	}
	return nil
}

// Answer is a closed variant: either a single text value (text, number and
// single-choice questions) or a selection list (multi-choice). The zero
// value is the text-kind "no answer" marker.
type Answer struct {
	Text    string
	Multi   []string
	IsMulti bool
}

func TextAnswer(s string) Answer { return Answer{Text: s} }

func MultiAnswer(values ...string) Answer {
	if values == nil {
		values = []string{}
	}
	return Answer{Multi: values, IsMulti: true}
}

// Empty reports whether the answer is the "no answer" marker.
func (a Answer) Empty() bool {
	if a.IsMulti {
		return len(a.Multi) == 0
	}
	return strings.TrimSpace(a.Text) == ""
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsMulti {
		values := a.Multi
		if values == nil {
			values = []string{}
		}
		return json.Marshal(values)
	}
	return json.Marshal(a.Text)
}

// UnmarshalJSON accepts the stored shapes (string or string list) and
// coerces legacy scalar values to text so old rows keep loading.
func (a *Answer) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = TextAnswer(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*a = MultiAnswer(list...)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*a = TextAnswer(strconv.FormatFloat(n, 'f', -1, 64))
		return nil
	}
	var null any
	if err := json.Unmarshal(b, &null); err == nil && null == nil {
		*a = TextAnswer("")
		return nil
	}
	// Anything else is carried verbatim; aggregation surfaces it.
	*a = TextAnswer(string(b))
	return nil
}

// ResponseData maps question ids to answers. Keys with no matching question
// in the current schema are tolerated on load and reported as integrity
// anomalies by the aggregation engine.
type ResponseData map[string]Answer

type Response struct {
	ID          string       `json:"id"`
	SurveyID    string       `json:"survey_id"`
	UserID      string       `json:"user_id"`
	Data        ResponseData `json:"response_data"`
	CompletedAt time.Time    `json:"completed_at"`
}

const RoleAdmin = "admin"

// NewUserWindow is how long after account creation a user counts as "new"
// for target-audience filtering.
const NewUserWindow = 30 * 24 * time.Hour

// Identity is the verified caller identity, passed explicitly into every
// operation that needs it. Services never read ambient auth state.
type Identity struct {
	UserID     string
	Role       string
	SignedUpAt time.Time // zero when unknown
}

func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

// AudienceGroup classifies the caller for target-audience filtering. Users
// with an unknown signup time are treated as existing.
func (id Identity) AudienceGroup(now time.Time) Audience {
	if !id.SignedUpAt.IsZero() && now.Sub(id.SignedUpAt) < NewUserWindow {
		return AudienceNewUsers
	}
	return AudienceExistingUsers
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
