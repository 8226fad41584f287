package services

import "time"

// Store is the full persistence surface. Each service narrows it to the
// subset it needs; backends implement all of it.
type Store interface {
	InsertSurvey(s *Survey) error
	InsertQuestions(qs []*Question) error
	GetSurvey(id string) (*Survey, error)
	ListSurveys() ([]*Survey, error)
	UpdateSurveyStatus(id string, status SurveyStatus, publishedAt *time.Time) error
	DeleteSurvey(id string) error

	ListQuestions(surveyID string) ([]*Question, error)

	UpsertResponse(r *Response) (*Response, error)
	GetResponse(surveyID, userID string) (*Response, error)
	ListResponses(surveyID string) ([]*Response, error)
	CountResponses(surveyID string) (int, error)
	CountResponsesSince(since time.Time) (int, error)

	AddUser(u *User) error
	FindUserByEmail(email string) (*User, error)
	GetUser(id string) (*User, error)
}
