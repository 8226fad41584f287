package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tasterr/tasterr/internal/services"
)

// SQLiteStore implements services.Store on a single SQLite file. It is the
// default backend; one process owns the file.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &SQLiteStore{db: sqlDB}, nil
}

func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) InsertSurvey(sv *services.Survey) error {
	_, err := s.db.Exec(`INSERT INTO surveys
		(id, title, description, introduction, status, target_audience, created_by, created_at, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sv.ID, sv.Title, sv.Description, sv.Introduction, string(sv.Status),
		string(sv.Audience), sv.CreatedBy, sv.CreatedAt, nullableTime(sv.PublishedAt))
	return err
}

func (s *SQLiteStore) InsertQuestions(qs []*services.Question) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, q := range qs {
		opts, err := json.Marshal(q.Options)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`INSERT INTO survey_questions
			(id, survey_id, question_text, question_subtitle, question_type, options, is_required, order_index)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			q.ID, q.SurveyID, q.Text, q.Subtitle, string(q.Type), string(opts), q.Required, q.OrderIndex); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

const surveyColumns = `id, title, description, introduction, status, target_audience, created_by, created_at, published_at`

func (s *SQLiteStore) GetSurvey(id string) (*services.Survey, error) {
	row := s.db.QueryRow(`SELECT `+surveyColumns+` FROM surveys WHERE id = ?`, id)
	sv, err := scanSurvey(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sv, err
}

func (s *SQLiteStore) ListSurveys() ([]*services.Survey, error) {
	rows, err := s.db.Query(`SELECT ` + surveyColumns + ` FROM surveys ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.Survey
	for rows.Next() {
		sv, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSurvey(row rowScanner) (*services.Survey, error) {
	var sv services.Survey
	var status, audience string
	var publishedAt sql.NullTime
	err := row.Scan(&sv.ID, &sv.Title, &sv.Description, &sv.Introduction,
		&status, &audience, &sv.CreatedBy, &sv.CreatedAt, &publishedAt)
	if err != nil {
		return nil, err
	}
	sv.Status = services.SurveyStatus(status)
	sv.Audience = services.Audience(audience)
	if publishedAt.Valid {
		t := publishedAt.Time
		sv.PublishedAt = &t
	}
	return &sv, nil
}

func (s *SQLiteStore) UpdateSurveyStatus(id string, status services.SurveyStatus, publishedAt *time.Time) error {
	_, err := s.db.Exec(`UPDATE surveys SET status = ?, published_at = ? WHERE id = ?`,
		string(status), nullableTime(publishedAt), id)
	return err
}

// DeleteSurvey removes the survey row and its responses; the question rows
// go with the survey through the foreign key.
func (s *SQLiteStore) DeleteSurvey(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM survey_responses WHERE survey_id = ?`, id); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`DELETE FROM surveys WHERE id = ?`, id); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListQuestions(surveyID string) ([]*services.Question, error) {
	rows, err := s.db.Query(`SELECT id, survey_id, question_text, question_subtitle, question_type, options, is_required, order_index
		FROM survey_questions WHERE survey_id = ? ORDER BY order_index`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.Question
	for rows.Next() {
		var q services.Question
		var qType, opts string
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.Text, &q.Subtitle, &qType, &opts, &q.Required, &q.OrderIndex); err != nil {
			return nil, err
		}
		q.Type = services.QuestionType(qType)
		if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
			return nil, fmt.Errorf("question %s options: %w", q.ID, err)
		}
		out = append(out, &q)
	}
	return out, rows.Err()
}

// UpsertResponse writes the answer set for a (survey, user) pair. A second
// submission replaces response_data and completed_at but keeps the original
// row id.
func (s *SQLiteStore) UpsertResponse(r *services.Response) (*services.Response, error) {
	data, err := json.Marshal(r.Data)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(`INSERT INTO survey_responses (id, survey_id, user_id, response_data, completed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (survey_id, user_id) DO UPDATE SET
			response_data = excluded.response_data,
			completed_at = excluded.completed_at`,
		r.ID, r.SurveyID, r.UserID, string(data), r.CompletedAt)
	if err != nil {
		return nil, err
	}
	return s.GetResponse(r.SurveyID, r.UserID)
}

func (s *SQLiteStore) GetResponse(surveyID, userID string) (*services.Response, error) {
	row := s.db.QueryRow(`SELECT id, survey_id, user_id, response_data, completed_at
		FROM survey_responses WHERE survey_id = ? AND user_id = ?`, surveyID, userID)
	r, err := scanResponse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func (s *SQLiteStore) ListResponses(surveyID string) ([]*services.Response, error) {
	rows, err := s.db.Query(`SELECT id, survey_id, user_id, response_data, completed_at
		FROM survey_responses WHERE survey_id = ? ORDER BY completed_at, id`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*services.Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanResponse(row rowScanner) (*services.Response, error) {
	var r services.Response
	var data string
	if err := row.Scan(&r.ID, &r.SurveyID, &r.UserID, &data, &r.CompletedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &r.Data); err != nil {
		return nil, fmt.Errorf("response %s data: %w", r.ID, err)
	}
	return &r, nil
}

func (s *SQLiteStore) CountResponses(surveyID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM survey_responses WHERE survey_id = ?`, surveyID).Scan(&n)
	return n, err
}

func (s *SQLiteStore) CountResponsesSince(since time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM survey_responses WHERE completed_at >= ?`, since).Scan(&n)
	return n, err
}

func (s *SQLiteStore) AddUser(u *services.User) error {
	_, err := s.db.Exec(`INSERT INTO users (id, email, pass_hash, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PassHash, u.Role, u.CreatedAt)
	return err
}

func (s *SQLiteStore) FindUserByEmail(email string) (*services.User, error) {
	row := s.db.QueryRow(`SELECT id, email, pass_hash, role, created_at FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (s *SQLiteStore) GetUser(id string) (*services.User, error) {
	row := s.db.QueryRow(`SELECT id, email, pass_hash, role, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row rowScanner) (*services.User, error) {
	var u services.User
	err := row.Scan(&u.ID, &u.Email, &u.PassHash, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

var _ services.Store = (*SQLiteStore)(nil)
