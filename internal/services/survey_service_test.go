package services

import (
	"testing"
	"time"
)

var (
	admin = Identity{UserID: "adm1", Role: RoleAdmin}
	t0    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newTestSurveyService(store SurveyStore) *SurveyService {
	s := NewSurveyService(store)
	s.now = fixedClock(t0)
	s.idGen = seqIDs("id")
	return s
}

func draftWithOneQuestion() SurveyDraft {
	return SurveyDraft{
		Title:        "Coffee habits",
		Introduction: "Quick one.",
		Audience:     AudienceAll,
		Questions: []QuestionDraft{
			{Text: "How many cups a day?", Type: QuestionNumber, Required: true},
		},
	}
}

func TestCreateAssignsPositionsFromSliceOrder(t *testing.T) {
	store := newMemStore()
	svc := newTestSurveyService(store)
	draft := draftWithOneQuestion()
	draft.Questions = append(draft.Questions,
		QuestionDraft{Text: "Favourite roast?", Type: QuestionSingleChoice, Required: true,
			Options: []QuestionOption{{Value: "light", Label: "Light"}, {Value: "dark", Label: "Dark"}}},
		QuestionDraft{Text: "Anything else?", Type: QuestionLongText},
	)

	created, err := svc.Create(admin, draft)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != StatusDraft {
		t.Fatalf("status = %s, want draft", created.Status)
	}
	if created.CreatedBy != admin.UserID || !created.CreatedAt.Equal(t0) {
		t.Fatalf("authorship not stamped: %+v", created)
	}
	for i, q := range created.Questions {
		if q.OrderIndex != i+1 {
			t.Fatalf("question %d has position %d, want %d", i, q.OrderIndex, i+1)
		}
	}
	if len(store.questions[created.ID]) != 3 {
		t.Fatalf("stored %d questions, want 3", len(store.questions[created.ID]))
	}
}

func TestCreateRejectsNonAdminAndBadDrafts(t *testing.T) {
	svc := newTestSurveyService(newMemStore())

	if _, err := svc.Create(Identity{UserID: "u1", Role: "user"}, draftWithOneQuestion()); err == nil {
		t.Fatal("expected non-admin create to be forbidden")
	}

	bad := draftWithOneQuestion()
	bad.Title = "  "
	if _, err := svc.Create(admin, bad); err == nil {
		t.Fatal("expected blank title to be rejected")
	}

	bad = draftWithOneQuestion()
	bad.Questions = nil
	if _, err := svc.Create(admin, bad); err == nil {
		t.Fatal("expected empty question list to be rejected")
	}

	bad = draftWithOneQuestion()
	bad.Audience = "robots"
	if _, err := svc.Create(admin, bad); err == nil {
		t.Fatal("expected unknown audience to be rejected")
	}

	bad = draftWithOneQuestion()
	bad.Questions[0].Type = QuestionSingleChoice // choice without options
	if _, err := svc.Create(admin, bad); err == nil {
		t.Fatal("expected invalid question to be rejected")
	}
}

func TestLifecycleRunsForwardOnly(t *testing.T) {
	store := newMemStore()
	svc := newTestSurveyService(store)
	created, err := svc.Create(admin, draftWithOneQuestion())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	published, err := svc.Publish(admin, created.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if published.Status != StatusPublished {
		t.Fatalf("status = %s, want published", published.Status)
	}
	if published.PublishedAt == nil || !published.PublishedAt.Equal(t0) {
		t.Fatalf("PublishedAt = %v, want %v", published.PublishedAt, t0)
	}

	if _, err := svc.Publish(admin, created.ID); err == nil {
		t.Fatal("expected republish to be rejected")
	}

	archived, err := svc.Archive(admin, created.ID)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if archived.Status != StatusArchived {
		t.Fatalf("status = %s, want archived", archived.Status)
	}
	// The publication stamp survives archiving.
	if archived.PublishedAt == nil || !archived.PublishedAt.Equal(t0) {
		t.Fatalf("PublishedAt lost on archive: %v", archived.PublishedAt)
	}

	if _, err := svc.Publish(admin, created.ID); err == nil {
		t.Fatal("expected archived -> published to be rejected")
	}
}

func TestArchiveStraightFromDraft(t *testing.T) {
	svc := newTestSurveyService(newMemStore())
	created, err := svc.Create(admin, draftWithOneQuestion())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	archived, err := svc.Archive(admin, created.ID)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if archived.PublishedAt != nil {
		t.Fatalf("never-published survey has PublishedAt %v", archived.PublishedAt)
	}
}

func TestListForAudienceFilters(t *testing.T) {
	store := newMemStore()
	svc := newTestSurveyService(store)

	mk := func(aud Audience) *Survey {
		d := draftWithOneQuestion()
		d.Title = "for " + string(aud)
		d.Audience = aud
		sv, err := svc.Create(admin, d)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := svc.Publish(admin, sv.ID); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		return sv
	}
	everyone := mk(AudienceAll)
	newOnly := mk(AudienceNewUsers)
	existingOnly := mk(AudienceExistingUsers)

	draftOnly, err := svc.Create(admin, draftWithOneQuestion())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newcomer := Identity{UserID: "u-new", Role: "user", SignedUpAt: t0.Add(-24 * time.Hour)}
	veteran := Identity{UserID: "u-old", Role: "user", SignedUpAt: t0.Add(-90 * 24 * time.Hour)}

	ids := func(svs []*Survey) map[string]bool {
		out := map[string]bool{}
		for _, sv := range svs {
			out[sv.ID] = true
		}
		return out
	}

	got, err := svc.ListForAudience(newcomer)
	if err != nil {
		t.Fatalf("ListForAudience: %v", err)
	}
	seen := ids(got)
	if !seen[everyone.ID] || !seen[newOnly.ID] || seen[existingOnly.ID] || seen[draftOnly.ID] {
		t.Fatalf("newcomer sees %v", seen)
	}

	got, err = svc.ListForAudience(veteran)
	if err != nil {
		t.Fatalf("ListForAudience: %v", err)
	}
	seen = ids(got)
	if !seen[everyone.ID] || seen[newOnly.ID] || !seen[existingOnly.ID] {
		t.Fatalf("veteran sees %v", seen)
	}

	// Responding removes the survey from the listing.
	store.responses[everyone.ID] = map[string]*Response{
		veteran.UserID: {ID: "r1", SurveyID: everyone.ID, UserID: veteran.UserID},
	}
	got, err = svc.ListForAudience(veteran)
	if err != nil {
		t.Fatalf("ListForAudience: %v", err)
	}
	if ids(got)[everyone.ID] {
		t.Fatal("completed survey still listed")
	}
}

func TestGetForTakingCustomIsAnswerOnce(t *testing.T) {
	store := newMemStore()
	svc := newTestSurveyService(store)
	created, err := svc.Create(admin, draftWithOneQuestion())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	user := Identity{UserID: "u1", Role: "user"}

	if _, _, err := svc.GetForTaking(user, created.ID); err == nil {
		t.Fatal("expected draft survey to be unavailable")
	}
	if _, err := svc.Publish(admin, created.ID); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	survey, prior, err := svc.GetForTaking(user, created.ID)
	if err != nil {
		t.Fatalf("GetForTaking: %v", err)
	}
	if prior != nil {
		t.Fatalf("unexpected prior response %+v", prior)
	}
	if len(survey.Questions) != 1 {
		t.Fatalf("questions not loaded: %+v", survey)
	}

	store.responses[created.ID] = map[string]*Response{
		user.UserID: {ID: "r1", SurveyID: created.ID, UserID: user.UserID},
	}
	_, _, err = svc.GetForTaking(user, created.ID)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorConflict {
		t.Fatalf("second take = %v, want conflict", err)
	}
}

func TestGetForTakingEnforcesAudience(t *testing.T) {
	store := newMemStore()
	svc := newTestSurveyService(store)
	d := draftWithOneQuestion()
	d.Audience = AudienceNewUsers
	created, err := svc.Create(admin, d)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Publish(admin, created.ID); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	veteran := Identity{UserID: "u-old", Role: "user", SignedUpAt: t0.Add(-90 * 24 * time.Hour)}
	_, _, err = svc.GetForTaking(veteran, created.ID)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("out-of-audience fetch = %v, want not found", err)
	}

	newcomer := Identity{UserID: "u-new", Role: "user", SignedUpAt: t0.Add(-24 * time.Hour)}
	if _, _, err := svc.GetForTaking(newcomer, created.ID); err != nil {
		t.Fatalf("in-audience fetch: %v", err)
	}
}

func TestGetWithResponsesNewestFirst(t *testing.T) {
	store := newMemStore()
	svc := newTestSurveyService(store)
	created, err := svc.Create(admin, draftWithOneQuestion())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	store.responses[created.ID] = map[string]*Response{
		"u1": {ID: "r1", SurveyID: created.ID, UserID: "u1", CompletedAt: t0},
		"u2": {ID: "r2", SurveyID: created.ID, UserID: "u2", CompletedAt: t0.Add(time.Hour)},
		"u3": {ID: "r3", SurveyID: created.ID, UserID: "u3", CompletedAt: t0.Add(2 * time.Hour)},
	}

	_, responses, err := svc.GetWithResponses(admin, created.ID)
	if err != nil {
		t.Fatalf("GetWithResponses: %v", err)
	}
	if len(responses) != 3 {
		t.Fatalf("got %d responses, want 3", len(responses))
	}
	if responses[0].UserID != "u3" || responses[2].UserID != "u1" {
		t.Fatalf("order = [%s %s %s], want newest first",
			responses[0].UserID, responses[1].UserID, responses[2].UserID)
	}
}

func TestGetForTakingBuiltinIsEditable(t *testing.T) {
	store := newMemStore()
	svc := newTestSurveyService(store)
	user := Identity{UserID: "u1", Role: "user"}

	store.responses[BuiltinProfile] = map[string]*Response{
		user.UserID: {ID: "r1", SurveyID: BuiltinProfile, UserID: user.UserID,
			Data: ResponseData{"profession": TextAnswer("baker")}},
	}
	survey, prior, err := svc.GetForTaking(user, BuiltinProfile)
	if err != nil {
		t.Fatalf("GetForTaking: %v", err)
	}
	if survey.ID != BuiltinProfile {
		t.Fatalf("survey = %s", survey.ID)
	}
	if prior == nil || prior.Data["profession"].Text != "baker" {
		t.Fatalf("prior response not returned: %+v", prior)
	}
}

func TestBuiltinLifecycleIsFixed(t *testing.T) {
	svc := newTestSurveyService(newMemStore())
	if _, err := svc.Publish(admin, BuiltinBeer); err == nil {
		t.Fatal("expected publish of a builtin survey to be rejected")
	}
	if err := svc.Delete(admin, BuiltinSnacks); err == nil {
		t.Fatal("expected delete of a builtin survey to be rejected")
	}
}

func TestDeleteCascades(t *testing.T) {
	store := newMemStore()
	svc := newTestSurveyService(store)
	created, err := svc.Create(admin, draftWithOneQuestion())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	store.responses[created.ID] = map[string]*Response{
		"u1": {ID: "r1", SurveyID: created.ID, UserID: "u1"},
	}
	if err := svc.Delete(admin, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := store.surveys[created.ID]; ok {
		t.Fatal("survey row survived delete")
	}
	if len(store.questions[created.ID]) != 0 || len(store.responses[created.ID]) != 0 {
		t.Fatal("questions or responses survived delete")
	}
	if err := svc.Delete(admin, created.ID); err == nil {
		t.Fatal("expected second delete to report not found")
	}
}

func TestListResearchTopicsReportsCompletion(t *testing.T) {
	store := newMemStore()
	svc := newTestSurveyService(store)
	user := Identity{UserID: "u1", Role: "user"}
	store.responses[BuiltinBeer] = map[string]*Response{
		user.UserID: {ID: "r1", SurveyID: BuiltinBeer, UserID: user.UserID},
	}
	topics, err := svc.ListResearchTopics(user)
	if err != nil {
		t.Fatalf("ListResearchTopics: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("got %d topics, want 2", len(topics))
	}
	byID := map[string]bool{}
	for _, tp := range topics {
		byID[tp.ID] = tp.Completed
	}
	if !byID[BuiltinBeer] || byID[BuiltinSnacks] {
		t.Fatalf("completion flags wrong: %v", byID)
	}
}
