package bant

import (
	"github.com/marwie0904/leadify-RE-APP-sub001/internal/models"
)

type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusComplete   Status = "COMPLETE"
)

// Tracker holds per-conversation qualification progress. It is not safe for
// concurrent use; the orchestrator serializes turns per conversation.
type Tracker struct {
	state models.BANTState
}

func NewTracker(state models.BANTState) *Tracker {
	return &Tracker{state: state}
}

func (t *Tracker) State() models.BANTState {
	return t.state
}

func (t *Tracker) Status() Status {
	filled := 0
	for _, f := range CanonicalOrder {
		if t.Filled(f) {
			filled++
		}
	}
	switch filled {
	case 0:
		return StatusNotStarted
	case len(CanonicalOrder):
		return StatusComplete
	default:
		return StatusInProgress
	}
}

func (t *Tracker) Filled(f Field) bool {
	return t.slot(f) != nil && *t.slot(f) != ""
}

func (t *Tracker) slot(f Field) *string {
	switch f {
	case FieldBudget:
		return t.state.Budget
	case FieldAuthority:
		return t.state.Authority
	case FieldNeed:
		return t.state.Need
	case FieldTimeline:
		return t.state.Timeline
	case FieldContact:
		return t.state.Contact
	}
	return nil
}

func (t *Tracker) set(f Field, value string) {
	v := value
	switch f {
	case FieldBudget:
		t.state.Budget = &v
	case FieldAuthority:
		t.state.Authority = &v
	case FieldNeed:
		t.state.Need = &v
	case FieldTimeline:
		t.state.Timeline = &v
	case FieldContact:
		t.state.Contact = &v
	}
}

// Merge applies extracted matches first-write-wins and returns the fields
// that were newly filled this turn. A filled slot is never replaced here;
// corrections go through Overwrite.
func (t *Tracker) Merge(matches []FieldMatch) []Field {
	var filled []Field
	for _, m := range matches {
		if m.Value == "" || t.Filled(m.Field) {
			continue
		}
		t.set(m.Field, m.Value)
		filled = append(filled, m.Field)
	}
	return filled
}

// Overwrite replaces a slot regardless of its current value. Only the
// correction intent path uses it.
func (t *Tracker) Overwrite(f Field, value string) {
	if value != "" {
		t.set(f, value)
	}
}

// NextField returns the first unfilled slot in canonical order.
func (t *Tracker) NextField() (Field, bool) {
	for _, f := range CanonicalOrder {
		if !t.Filled(f) {
			return f, true
		}
	}
	return "", false
}

// NextQuestion returns the question for the first unfilled slot, or the
// completion acknowledgment when every slot is filled.
func (t *Tracker) NextQuestion() string {
	if f, ok := t.NextField(); ok {
		return Question(f)
	}
	return CompletionMessage
}
