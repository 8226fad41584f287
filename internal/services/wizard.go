package services

// The wizard walks one user through one survey's questions in position
// order, accumulating answers and producing a single upserted response on
// completion. Nothing is persisted until submit, so abandoning the wizard
// at any step needs no cleanup.

type WizardState string

const (
	WizardInProgress WizardState = "in_progress"
	WizardSubmitting WizardState = "submitting"
	WizardComplete   WizardState = "complete"
	WizardFailed     WizardState = "failed"
)

// SubmitFunc persists the assembled response, upserting on the
// (survey, user) composite key.
type SubmitFunc func(surveyID, userID string, data ResponseData) (*Response, error)

type Wizard struct {
	survey  *Survey
	userID  string
	submit  SubmitFunc
	step    int
	state   WizardState
	answers ResponseData
	result  *Response
	failure error
}

// NewWizard builds a wizard over the survey's questions, sorted ascending by
// position. A prior response puts the wizard in edit mode: its answers
// become the working set and completion replaces the stored response.
func NewWizard(survey *Survey, userID string, prior *Response, submit SubmitFunc) (*Wizard, error) {
	if survey == nil || len(survey.Questions) == 0 {
		return nil, NewInvalidError("survey has no questions")
	}
	if userID == "" {
		return nil, NewInvalidError("user id required")
	}
	if submit == nil {
		return nil, NewInvalidError("submit func required")
	}
	survey.SortQuestions()
	answers := ResponseData{}
	if prior != nil {
		for id, a := range prior.Data {
			if survey.QuestionByID(id) != nil {
				answers[id] = a
			}
		}
	}
	return &Wizard{
		survey:  survey,
		userID:  userID,
		submit:  submit,
		state:   WizardInProgress,
		answers: answers,
	}, nil
}

func (w *Wizard) State() WizardState { return w.state }

func (w *Wizard) Step() int { return w.step }

func (w *Wizard) TotalSteps() int { return len(w.survey.Questions) }

// Progress is derived, never stored: (step+1)/total.
func (w *Wizard) Progress() float64 {
	return float64(w.step+1) / float64(len(w.survey.Questions))
}

func (w *Wizard) Current() *Question { return w.survey.Questions[w.step] }

func (w *Wizard) CurrentAnswer() Answer {
	if a, ok := w.answers[w.Current().ID]; ok {
		return a
	}
	return w.Current().NoAnswerValue()
}

// Answers returns a copy of the working answer set.
func (w *Wizard) Answers() ResponseData {
	out := make(ResponseData, len(w.answers))
	for id, a := range w.answers {
		out[id] = a
	}
	return out
}

func (w *Wizard) Result() *Response { return w.result }

// Failure returns the reason for the last failed submit, if any.
func (w *Wizard) Failure() error { return w.failure }

func (w *Wizard) guardNav() error {
	switch w.state {
	case WizardSubmitting:
		return NewConflictError("submission in progress")
	case WizardComplete:
		return NewConflictError("survey already completed")
	}
	return nil
}

// Answer records a value for the current question without advancing.
// Editing after a failed submit drops back to in-progress.
func (w *Wizard) Answer(a Answer) error {
	if err := w.guardNav(); err != nil {
		return err
	}
	w.answers[w.Current().ID] = a
	w.state = WizardInProgress
	return nil
}

// Next validates the current answer and advances one step, or submits when
// the current question is the last. An invalid answer leaves the step index
// unchanged.
func (w *Wizard) Next() error {
	if err := w.guardNav(); err != nil {
		return err
	}
	if w.state == WizardFailed {
		return NewConflictError("previous submission failed; retry or go back")
	}
	if err := ValidateAnswer(w.Current(), w.CurrentAnswer()); err != nil {
		return err
	}
	if w.step == len(w.survey.Questions)-1 {
		return w.doSubmit()
	}
	w.step++
	return nil
}

// Skip records the "no answer" marker and advances without validation.
// Only optional questions are skippable.
func (w *Wizard) Skip() error {
	if err := w.guardNav(); err != nil {
		return err
	}
	if !Skippable(w.Current()) {
		return NewFieldError(w.Current().ID, "this question cannot be skipped")
	}
	w.answers[w.Current().ID] = w.Current().NoAnswerValue()
	w.state = WizardInProgress
	if w.step == len(w.survey.Questions)-1 {
		return w.doSubmit()
	}
	w.step++
	return nil
}

// Previous retreats one step. Retreating never validates, and recovers from
// a failed submit with all answers intact.
func (w *Wizard) Previous() error {
	if err := w.guardNav(); err != nil {
		return err
	}
	if w.step == 0 {
		return NewInvalidError("already at the first question")
	}
	w.step--
	w.state = WizardInProgress
	w.failure = nil
	return nil
}

// Retry re-issues the submit after a failure. The upsert is idempotent on
// the composite key, so retries are safe.
func (w *Wizard) Retry() error {
	if w.state != WizardFailed {
		return NewConflictError("nothing to retry")
	}
	return w.doSubmit()
}

func (w *Wizard) doSubmit() error {
	w.state = WizardSubmitting
	data := make(ResponseData, len(w.survey.Questions))
	for _, q := range w.survey.Questions {
		if a, ok := w.answers[q.ID]; ok {
			data[q.ID] = a
		} else {
			data[q.ID] = q.NoAnswerValue()
		}
	}
	resp, err := w.submit(w.survey.ID, w.userID, data)
	if err != nil {
		// Answers stay intact; the caller may retry or step back.
		w.state = WizardFailed
		w.failure = err
		return err
	}
	w.state = WizardComplete
	w.failure = nil
	w.result = resp
	return nil
}
