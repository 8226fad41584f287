package services

import (
	"strconv"
	"strings"
)

// ValidateAnswer applies the per-type answer rules. It is pure and
// stateless; failures are field-scoped invalid errors carrying the
// question id.
//
// Required gates presence for every type. Number format is checked whenever
// a value is present, required or not; choice membership is checked whenever
// a selection is present.
func ValidateAnswer(q *Question, a Answer) error {
	switch q.Type {
	case QuestionShortText, QuestionLongText:
		if a.IsMulti {
			return NewFieldError(q.ID, "expects a single text value")
		}
		if q.Required && a.Empty() {
			return NewFieldError(q.ID, "an answer is required")
		}
	case QuestionNumber:
		if a.IsMulti {
			return NewFieldError(q.ID, "expects a single numeric value")
		}
		if a.Empty() {
			if q.Required {
				return NewFieldError(q.ID, "an answer is required")
			}
			return nil
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(a.Text), 64); err != nil {
			return NewFieldError(q.ID, "must be a number")
		}
	case QuestionSingleChoice:
		if a.IsMulti {
			return NewFieldError(q.ID, "expects exactly one selection")
		}
		if a.Empty() {
			if q.Required {
				return NewFieldError(q.ID, "a selection is required")
			}
			return nil
		}
		if _, ok := q.OptionLabel(a.Text); !ok {
			return NewFieldError(q.ID, "not one of the available options")
		}
	case QuestionMultiChoice:
		if !a.IsMulti && !a.Empty() {
			return NewFieldError(q.ID, "expects a list of selections")
		}
		if a.Empty() {
			if q.Required {
				return NewFieldError(q.ID, "at least one selection is required")
			}
			return nil
		}
		for _, v := range a.Multi {
			if _, ok := q.OptionLabel(v); !ok {
				return NewFieldError(q.ID, "selection "+strconv.Quote(v)+" is not one of the available options")
			}
		}
	default:
		return NewFieldError(q.ID, "unknown question type "+string(q.Type))
	}
	return nil
}

// Skippable reports whether a question may be skipped. Skipping records the
// explicit "no answer" marker for the question.
func Skippable(q *Question) bool { return !q.Required }
