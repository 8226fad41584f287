package services

import (
	"fmt"
	"sort"
	"time"
)

// memStore is the in-memory Store used across the service tests. Setting
// failWith makes every call return that error.
type memStore struct {
	surveys   map[string]*Survey
	questions map[string][]*Question
	responses map[string]map[string]*Response
	users     map[string]*User
	failWith  error
}

func newMemStore() *memStore {
	return &memStore{
		surveys:   map[string]*Survey{},
		questions: map[string][]*Question{},
		responses: map[string]map[string]*Response{},
		users:     map[string]*User{},
	}
}

func (m *memStore) InsertSurvey(s *Survey) error {
	if m.failWith != nil {
		return m.failWith
	}
	cp := *s
	cp.Questions = nil
	m.surveys[s.ID] = &cp
	return nil
}

func (m *memStore) InsertQuestions(qs []*Question) error {
	if m.failWith != nil {
		return m.failWith
	}
	for _, q := range qs {
		cp := *q
		m.questions[q.SurveyID] = append(m.questions[q.SurveyID], &cp)
	}
	return nil
}

func (m *memStore) GetSurvey(id string) (*Survey, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	s, ok := m.surveys[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) ListSurveys() ([]*Survey, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]*Survey, 0, len(m.surveys))
	for _, s := range m.surveys {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateSurveyStatus(id string, status SurveyStatus, publishedAt *time.Time) error {
	if m.failWith != nil {
		return m.failWith
	}
	s, ok := m.surveys[id]
	if !ok {
		return nil
	}
	s.Status = status
	s.PublishedAt = publishedAt
	return nil
}

func (m *memStore) DeleteSurvey(id string) error {
	if m.failWith != nil {
		return m.failWith
	}
	delete(m.surveys, id)
	delete(m.questions, id)
	delete(m.responses, id)
	return nil
}

func (m *memStore) ListQuestions(surveyID string) ([]*Question, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	qs := m.questions[surveyID]
	out := make([]*Question, 0, len(qs))
	for _, q := range qs {
		cp := *q
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) UpsertResponse(r *Response) (*Response, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	byUser := m.responses[r.SurveyID]
	if byUser == nil {
		byUser = map[string]*Response{}
		m.responses[r.SurveyID] = byUser
	}
	cp := *r
	if prev, ok := byUser[r.UserID]; ok {
		cp.ID = prev.ID
	}
	byUser[r.UserID] = &cp
	out := cp
	return &out, nil
}

func (m *memStore) GetResponse(surveyID, userID string) (*Response, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	r, ok := m.responses[surveyID][userID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) ListResponses(surveyID string) ([]*Response, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []*Response{}
	for _, r := range m.responses[surveyID] {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].CompletedAt.Before(out[j].CompletedAt)
	})
	return out, nil
}

func (m *memStore) CountResponses(surveyID string) (int, error) {
	if m.failWith != nil {
		return 0, m.failWith
	}
	return len(m.responses[surveyID]), nil
}

func (m *memStore) CountResponsesSince(since time.Time) (int, error) {
	if m.failWith != nil {
		return 0, m.failWith
	}
	n := 0
	for _, byUser := range m.responses {
		for _, r := range byUser {
			if !r.CompletedAt.Before(since) {
				n++
			}
		}
	}
	return n, nil
}

func (m *memStore) AddUser(u *User) error {
	if m.failWith != nil {
		return m.failWith
	}
	cp := *u
	m.users[u.Email] = &cp
	return nil
}

func (m *memStore) FindUserByEmail(email string) (*User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUser(id string) (*User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

var _ Store = (*memStore)(nil)

// fixedClock returns a stable now func for deterministic tests.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}
