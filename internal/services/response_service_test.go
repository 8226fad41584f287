package services

import (
	"testing"
	"time"
)

func newTestResponseService(store ResponseStore, now time.Time) *ResponseService {
	s := NewResponseService(store)
	s.now = fixedClock(now)
	s.idGen = seqIDs("resp")
	return s
}

func publishedSurvey(store *memStore) *Survey {
	sv := &Survey{ID: "s1", Title: "Snacks", Status: StatusPublished, Audience: AudienceAll, CreatedBy: "adm1"}
	store.surveys[sv.ID] = sv
	store.questions[sv.ID] = []*Question{
		{ID: "q1", SurveyID: "s1", OrderIndex: 1, Text: "favourite?", Type: QuestionSingleChoice, Required: true,
			Options: []QuestionOption{{Value: "a", Label: "A"}, {Value: "b", Label: "B"}}},
		{ID: "q2", SurveyID: "s1", OrderIndex: 2, Text: "why?", Type: QuestionLongText},
	}
	return sv
}

func TestSubmitFillsMissingAnswersWithMarkers(t *testing.T) {
	store := newMemStore()
	publishedSurvey(store)
	svc := newTestResponseService(store, t0)
	user := Identity{UserID: "u1", Role: "user"}

	resp, err := svc.Submit(user, "s1", ResponseData{"q1": TextAnswer("a")})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.SurveyID != "s1" || resp.UserID != "u1" || !resp.CompletedAt.Equal(t0) {
		t.Fatalf("response = %+v", resp)
	}
	a, ok := resp.Data["q2"]
	if !ok || !a.Empty() {
		t.Fatalf("q2 = %#v, want explicit no-answer marker", a)
	}
}

func TestSubmitValidatesEveryAnswer(t *testing.T) {
	store := newMemStore()
	publishedSurvey(store)
	svc := newTestResponseService(store, t0)
	user := Identity{UserID: "u1", Role: "user"}

	// q1 is required; omitting it means its marker fails validation.
	_, err := svc.Submit(user, "s1", ResponseData{"q2": TextAnswer("because")})
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid || se.Field != "q1" {
		t.Fatalf("Submit = %v, want invalid error on q1", err)
	}

	_, err = svc.Submit(user, "s1", ResponseData{"q1": TextAnswer("z")})
	if se, ok = AsServiceError(err); !ok || se.Field != "q1" {
		t.Fatalf("Submit = %v, want membership failure on q1", err)
	}

	_, err = svc.Submit(user, "s1", ResponseData{"q1": TextAnswer("a"), "mystery": TextAnswer("x")})
	if se, ok = AsServiceError(err); !ok || se.Field != "mystery" {
		t.Fatalf("Submit = %v, want rejection of unknown key", err)
	}
}

func TestSubmitUpsertsOnCompositeKey(t *testing.T) {
	store := newMemStore()
	publishedSurvey(store)
	user := Identity{UserID: "u1", Role: "user"}

	first := newTestResponseService(store, t0)
	r1, err := first.Submit(user, "s1", ResponseData{"q1": TextAnswer("a")})
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	later := newTestResponseService(store, t0.Add(time.Hour))
	r2, err := later.Submit(user, "s1", ResponseData{"q1": TextAnswer("b")})
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if r2.ID != r1.ID {
		t.Fatalf("row id changed on resubmit: %s -> %s", r1.ID, r2.ID)
	}
	if r2.Data["q1"].Text != "b" || !r2.CompletedAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("resubmit did not replace: %+v", r2)
	}
	if n, _ := store.CountResponses("s1"); n != 1 {
		t.Fatalf("stored %d responses, want 1", n)
	}
}

func TestSubmitEnforcesAudience(t *testing.T) {
	store := newMemStore()
	sv := publishedSurvey(store)
	sv.Audience = AudienceNewUsers
	svc := newTestResponseService(store, t0)

	veteran := Identity{UserID: "u-old", Role: "user", SignedUpAt: t0.Add(-90 * 24 * time.Hour)}
	_, err := svc.Submit(veteran, "s1", ResponseData{"q1": TextAnswer("a")})
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("out-of-audience submit = %v, want not found", err)
	}

	newcomer := Identity{UserID: "u-new", Role: "user", SignedUpAt: t0.Add(-24 * time.Hour)}
	if _, err := svc.Submit(newcomer, "s1", ResponseData{"q1": TextAnswer("a")}); err != nil {
		t.Fatalf("in-audience submit: %v", err)
	}
}

func TestSubmitRejectsUnpublishedCustomSurvey(t *testing.T) {
	store := newMemStore()
	sv := publishedSurvey(store)
	sv.Status = StatusDraft
	svc := newTestResponseService(store, t0)

	_, err := svc.Submit(Identity{UserID: "u1"}, "s1", ResponseData{"q1": TextAnswer("a")})
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("Submit = %v, want not found", err)
	}
}

func TestSubmitBuiltinRoundTrip(t *testing.T) {
	store := newMemStore()
	svc := newTestResponseService(store, t0)
	user := Identity{UserID: "u1", Role: "user"}

	data := ResponseData{
		"snack_frequency":       TextAnswer("daily"),
		"preferred_snack_types": MultiAnswer("fruits", "popcorn"),
		"snack_occasions":       TextAnswer("work-study"),
		"health_consciousness":  TextAnswer("neutral"),
		"flavor_preferences":    MultiAnswer("salty", "sweet"),
	}
	if _, err := svc.Submit(user, BuiltinSnacks, data); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got, err := svc.GetOwn(user, BuiltinSnacks)
	if err != nil {
		t.Fatalf("GetOwn: %v", err)
	}
	fl := got.Data["flavor_preferences"]
	if !fl.IsMulti || len(fl.Multi) != 2 || fl.Multi[0] != "salty" || fl.Multi[1] != "sweet" {
		t.Fatalf("multi selection did not round-trip: %#v", fl)
	}
}

func TestGetOwnNotFound(t *testing.T) {
	svc := newTestResponseService(newMemStore(), t0)
	_, err := svc.GetOwn(Identity{UserID: "u1"}, BuiltinBeer)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("GetOwn = %v, want not found", err)
	}
}

func TestSubmitWrapsStoreFailures(t *testing.T) {
	store := newMemStore()
	publishedSurvey(store)
	svc := newTestResponseService(store, t0)
	store.failWith = errTimeout{}

	_, err := svc.Submit(Identity{UserID: "u1"}, "s1", ResponseData{"q1": TextAnswer("a")})
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorUnavailable {
		t.Fatalf("Submit = %v, want unavailable", err)
	}
}

type errTimeout struct{}

func (errTimeout) Error() string { return "i/o timeout" }
