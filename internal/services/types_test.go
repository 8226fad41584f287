package services

import (
	"encoding/json"
	"testing"
	"time"
)

func TestStatusTransitionsRunForward(t *testing.T) {
	cases := []struct {
		from, to SurveyStatus
		ok       bool
	}{
		{StatusDraft, StatusPublished, true},
		{StatusDraft, StatusArchived, true},
		{StatusPublished, StatusArchived, true},
		{StatusPublished, StatusDraft, false},
		{StatusArchived, StatusPublished, false},
		{StatusArchived, StatusDraft, false},
		{StatusDraft, StatusDraft, false},
		{StatusDraft, "retracted", false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestAnswerJSONRoundTrip(t *testing.T) {
	data := ResponseData{
		"text":  TextAnswer("hello"),
		"multi": MultiAnswer("a", "b"),
		"empty": MultiAnswer(),
	}
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back ResponseData
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a := back["text"]; a.IsMulti || a.Text != "hello" {
		t.Fatalf("text = %#v", a)
	}
	if a := back["multi"]; !a.IsMulti || len(a.Multi) != 2 {
		t.Fatalf("multi = %#v", a)
	}
	if a := back["empty"]; !a.IsMulti || len(a.Multi) != 0 {
		t.Fatalf("empty list = %#v, want empty selection list", a)
	}
}

func TestAnswerJSONCoercesLegacyScalars(t *testing.T) {
	var a Answer
	if err := json.Unmarshal([]byte(`42.5`), &a); err != nil {
		t.Fatalf("number: %v", err)
	}
	if a.IsMulti || a.Text != "42.5" {
		t.Fatalf("number coerced to %#v", a)
	}
	if err := json.Unmarshal([]byte(`null`), &a); err != nil {
		t.Fatalf("null: %v", err)
	}
	if !a.Empty() {
		t.Fatalf("null coerced to %#v, want marker", a)
	}
	if err := json.Unmarshal([]byte(`{"nested":true}`), &a); err != nil {
		t.Fatalf("object: %v", err)
	}
	if a.Text != `{"nested":true}` {
		t.Fatalf("object carried as %q, want verbatim", a.Text)
	}
}

func TestAudienceGroupWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fresh := Identity{UserID: "u1", SignedUpAt: now.Add(-29 * 24 * time.Hour)}
	if g := fresh.AudienceGroup(now); g != AudienceNewUsers {
		t.Fatalf("29-day account = %s, want new_users", g)
	}
	old := Identity{UserID: "u2", SignedUpAt: now.Add(-31 * 24 * time.Hour)}
	if g := old.AudienceGroup(now); g != AudienceExistingUsers {
		t.Fatalf("31-day account = %s, want existing_users", g)
	}
	unknown := Identity{UserID: "u3"}
	if g := unknown.AudienceGroup(now); g != AudienceExistingUsers {
		t.Fatalf("unknown signup = %s, want existing_users", g)
	}
}

func TestSortQuestionsStable(t *testing.T) {
	s := &Survey{Questions: []*Question{
		{ID: "c", OrderIndex: 2},
		{ID: "a", OrderIndex: 1},
		{ID: "b", OrderIndex: 2},
	}}
	s.SortQuestions()
	got := []string{s.Questions[0].ID, s.Questions[1].ID, s.Questions[2].ID}
	if got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("order = %v", got)
	}
}
