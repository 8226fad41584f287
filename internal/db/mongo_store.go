package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tasterr/tasterr/internal/services"
)

// MongoStore implements services.Store on MongoDB, for deployments where the
// single-file SQLite backend is not enough. Answer sets are kept as JSON
// strings so both backends share one wire shape.
type MongoStore struct {
	surveys   *mongo.Collection
	questions *mongo.Collection
	responses *mongo.Collection
	users     *mongo.Collection
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	database := client.Database(dbName)
	return &MongoStore{
		surveys:   database.Collection("surveys"),
		questions: database.Collection("survey_questions"),
		responses: database.Collection("survey_responses"),
		users:     database.Collection("users"),
	}
}

// EnsureIndexes creates the uniqueness constraints the services rely on.
// The compound (survey_id, user_id) index is what makes the response upsert
// atomic.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.responses.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "survey_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = s.questions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "survey_id", Value: 1}, {Key: "order_index", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func contextBg() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

type surveyDoc struct {
	ID           string     `bson:"_id"`
	Title        string     `bson:"title"`
	Description  string     `bson:"description"`
	Introduction string     `bson:"introduction"`
	Status       string     `bson:"status"`
	Audience     string     `bson:"target_audience"`
	CreatedBy    string     `bson:"created_by"`
	CreatedAt    time.Time  `bson:"created_at"`
	PublishedAt  *time.Time `bson:"published_at,omitempty"`
}

func (d surveyDoc) toSurvey() *services.Survey {
	return &services.Survey{
		ID:           d.ID,
		Title:        d.Title,
		Description:  d.Description,
		Introduction: d.Introduction,
		Status:       services.SurveyStatus(d.Status),
		Audience:     services.Audience(d.Audience),
		CreatedBy:    d.CreatedBy,
		CreatedAt:    d.CreatedAt,
		PublishedAt:  d.PublishedAt,
	}
}

type questionDoc struct {
	ID         string                    `bson:"_id"`
	SurveyID   string                    `bson:"survey_id"`
	Text       string                    `bson:"question_text"`
	Subtitle   string                    `bson:"question_subtitle,omitempty"`
	Type       string                    `bson:"question_type"`
	Options    []services.QuestionOption `bson:"options"`
	Required   bool                      `bson:"is_required"`
	OrderIndex int                       `bson:"order_index"`
}

type responseDoc struct {
	ID          string    `bson:"_id"`
	SurveyID    string    `bson:"survey_id"`
	UserID      string    `bson:"user_id"`
	Data        string    `bson:"response_data"`
	CompletedAt time.Time `bson:"completed_at"`
}

func (d responseDoc) toResponse() (*services.Response, error) {
	r := &services.Response{ID: d.ID, SurveyID: d.SurveyID, UserID: d.UserID, CompletedAt: d.CompletedAt}
	if err := json.Unmarshal([]byte(d.Data), &r.Data); err != nil {
		return nil, fmt.Errorf("response %s data: %w", d.ID, err)
	}
	return r, nil
}

type userDoc struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	PassHash  []byte    `bson:"pass_hash"`
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"created_at"`
}

func (s *MongoStore) InsertSurvey(sv *services.Survey) error {
	ctx, cancel := contextBg()
	defer cancel()
	_, err := s.surveys.InsertOne(ctx, surveyDoc{
		ID:           sv.ID,
		Title:        sv.Title,
		Description:  sv.Description,
		Introduction: sv.Introduction,
		Status:       string(sv.Status),
		Audience:     string(sv.Audience),
		CreatedBy:    sv.CreatedBy,
		CreatedAt:    sv.CreatedAt,
		PublishedAt:  sv.PublishedAt,
	})
	return err
}

func (s *MongoStore) InsertQuestions(qs []*services.Question) error {
	if len(qs) == 0 {
		return nil
	}
	ctx, cancel := contextBg()
	defer cancel()
	docs := make([]any, 0, len(qs))
	for _, q := range qs {
		docs = append(docs, questionDoc{
			ID:         q.ID,
			SurveyID:   q.SurveyID,
			Text:       q.Text,
			Subtitle:   q.Subtitle,
			Type:       string(q.Type),
			Options:    q.Options,
			Required:   q.Required,
			OrderIndex: q.OrderIndex,
		})
	}
	_, err := s.questions.InsertMany(ctx, docs)
	return err
}

func (s *MongoStore) GetSurvey(id string) (*services.Survey, error) {
	ctx, cancel := contextBg()
	defer cancel()
	var doc surveyDoc
	err := s.surveys.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toSurvey(), nil
}

func (s *MongoStore) ListSurveys() ([]*services.Survey, error) {
	ctx, cancel := contextBg()
	defer cancel()
	cur, err := s.surveys.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*services.Survey
	for cur.Next(ctx) {
		var doc surveyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toSurvey())
	}
	return out, cur.Err()
}

func (s *MongoStore) UpdateSurveyStatus(id string, status services.SurveyStatus, publishedAt *time.Time) error {
	ctx, cancel := contextBg()
	defer cancel()
	set := bson.M{"status": string(status)}
	if publishedAt != nil {
		set["published_at"] = *publishedAt
	}
	_, err := s.surveys.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

func (s *MongoStore) DeleteSurvey(id string) error {
	ctx, cancel := contextBg()
	defer cancel()
	if _, err := s.responses.DeleteMany(ctx, bson.M{"survey_id": id}); err != nil {
		return err
	}
	if _, err := s.questions.DeleteMany(ctx, bson.M{"survey_id": id}); err != nil {
		return err
	}
	_, err := s.surveys.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *MongoStore) ListQuestions(surveyID string) ([]*services.Question, error) {
	ctx, cancel := contextBg()
	defer cancel()
	cur, err := s.questions.Find(ctx, bson.M{"survey_id": surveyID},
		options.Find().SetSort(bson.D{{Key: "order_index", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*services.Question
	for cur.Next(ctx) {
		var doc questionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, &services.Question{
			ID:         doc.ID,
			SurveyID:   doc.SurveyID,
			Text:       doc.Text,
			Subtitle:   doc.Subtitle,
			Type:       services.QuestionType(doc.Type),
			Options:    doc.Options,
			Required:   doc.Required,
			OrderIndex: doc.OrderIndex,
		})
	}
	return out, cur.Err()
}

// UpsertResponse replaces the answer set for a (survey, user) pair in one
// atomic operation. The original document id is preserved across resubmits.
func (s *MongoStore) UpsertResponse(r *services.Response) (*services.Response, error) {
	data, err := json.Marshal(r.Data)
	if err != nil {
		return nil, err
	}
	ctx, cancel := contextBg()
	defer cancel()
	filter := bson.M{"survey_id": r.SurveyID, "user_id": r.UserID}
	update := bson.M{
		"$set": bson.M{
			"response_data": string(data),
			"completed_at":  r.CompletedAt,
		},
		"$setOnInsert": bson.M{
			"_id":       r.ID,
			"survey_id": r.SurveyID,
			"user_id":   r.UserID,
		},
	}
	var doc responseDoc
	err = s.responses.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return doc.toResponse()
}

func (s *MongoStore) GetResponse(surveyID, userID string) (*services.Response, error) {
	ctx, cancel := contextBg()
	defer cancel()
	var doc responseDoc
	err := s.responses.FindOne(ctx, bson.M{"survey_id": surveyID, "user_id": userID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toResponse()
}

func (s *MongoStore) ListResponses(surveyID string) ([]*services.Response, error) {
	ctx, cancel := contextBg()
	defer cancel()
	cur, err := s.responses.Find(ctx, bson.M{"survey_id": surveyID},
		options.Find().SetSort(bson.D{{Key: "completed_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*services.Response
	for cur.Next(ctx) {
		var doc responseDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		r, err := doc.toResponse()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, cur.Err()
}

func (s *MongoStore) CountResponses(surveyID string) (int, error) {
	ctx, cancel := contextBg()
	defer cancel()
	n, err := s.responses.CountDocuments(ctx, bson.M{"survey_id": surveyID})
	return int(n), err
}

func (s *MongoStore) CountResponsesSince(since time.Time) (int, error) {
	ctx, cancel := contextBg()
	defer cancel()
	n, err := s.responses.CountDocuments(ctx, bson.M{"completed_at": bson.M{"$gte": since}})
	return int(n), err
}

func (s *MongoStore) AddUser(u *services.User) error {
	ctx, cancel := contextBg()
	defer cancel()
	_, err := s.users.InsertOne(ctx, userDoc{
		ID:        u.ID,
		Email:     u.Email,
		PassHash:  u.PassHash,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	})
	return err
}

func (s *MongoStore) FindUserByEmail(email string) (*services.User, error) {
	return s.findUser(bson.M{"email": email})
}

func (s *MongoStore) GetUser(id string) (*services.User, error) {
	return s.findUser(bson.M{"_id": id})
}

func (s *MongoStore) findUser(filter bson.M) (*services.User, error) {
	ctx, cancel := contextBg()
	defer cancel()
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &services.User{
		ID:        doc.ID,
		Email:     doc.Email,
		PassHash:  doc.PassHash,
		Role:      doc.Role,
		CreatedAt: doc.CreatedAt,
	}, nil
}

var _ services.Store = (*MongoStore)(nil)
