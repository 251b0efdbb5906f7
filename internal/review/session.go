// Package review orchestrates one pass over a set of due flashcards: present,
// flip, record an outcome, advance. A graded session persists each outcome
// through the Leitner scheduler as it is recorded; a practice session runs the
// same mechanics but only keeps a local tally.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studykeet/internal/domain"
	"studykeet/internal/leitner"
)

// Sentinel errors for session sequencing. Check with errors.Is.
var (
	ErrEmptySet        = errors.New("review: no cards due")
	ErrAlreadyStarted  = errors.New("review: session already started")
	ErrNotInProgress   = errors.New("review: session not in progress")
	ErrNotRevealed     = errors.New("review: card not revealed yet")
	ErrAlreadyRevealed = errors.New("review: card already revealed")
	ErrNotComplete     = errors.New("review: session not complete")
	ErrSessionClosed   = errors.New("review: session closed")
)

// State is the lifecycle stage of a session.
type State int

const (
	StateIdle State = iota
	StateInProgress
	StateComplete
	StateNothingDue // reached only via Restart when nothing is due anymore
)

var stateNames = map[State]string{
	StateIdle:       "idle",
	StateInProgress: "in_progress",
	StateComplete:   "complete",
	StateNothingDue: "nothing_due",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Phase is the sub-state of the card currently presented.
type Phase int

const (
	PhaseShowing Phase = iota
	PhaseRevealed
)

func (p Phase) String() string {
	if p == PhaseRevealed {
		return "revealed"
	}
	return "showing"
}

// OutcomeWriter persists a graded outcome for one card and returns the updated
// card. Implementations apply the Leitner transition themselves so scheduling
// has a single authority.
type OutcomeWriter interface {
	RecordOutcome(ctx context.Context, cardID int64, o leitner.Outcome, now time.Time) (domain.Flashcard, error)
}

// DueSource selects the cards due for review, used when a session restarts.
type DueSource interface {
	DueFlashcards(ctx context.Context, subject string, now time.Time) ([]domain.Flashcard, error)
}

// Tally counts recorded outcomes for one session.
type Tally struct {
	Again int `json:"again"`
	Hard  int `json:"hard"`
	Good  int `json:"good"`
	Easy  int `json:"easy"`
}

// Total returns the number of outcomes recorded.
func (t Tally) Total() int { return t.Again + t.Hard + t.Good + t.Easy }

// Correct returns the count of non-again outcomes, the ✓ figure of the
// practice-mode summary.
func (t Tally) Correct() int { return t.Hard + t.Good + t.Easy }

// Incorrect returns the count of again outcomes.
func (t Tally) Incorrect() int { return t.Again }

// Summary is a snapshot of a session's progress.
type Summary struct {
	ID        uuid.UUID         `json:"id"`
	State     string            `json:"state"`
	Phase     string            `json:"phase"`
	Subject   string            `json:"subject,omitempty"`
	Practice  bool              `json:"practice"`
	Index     int               `json:"index"`
	Total     int               `json:"total"`
	Tally     Tally             `json:"tally"`
	Reviewed  int               `json:"reviewed"`
	Correct   int               `json:"correct"`
	Incorrect int               `json:"incorrect"`
	Card      *domain.Flashcard `json:"card,omitempty"`
}

// Config carries a session's collaborators. Writer is required unless Practice
// is set; Source is required only for Restart of graded sessions. Now defaults
// to time.Now.
type Config struct {
	Subject  string
	Practice bool
	Writer   OutcomeWriter
	Source   DueSource
	Now      func() time.Time
}

// Runner drives one review session. It is not safe for concurrent use; callers
// serialize access (the web layer holds one mutex per session).
type Runner struct {
	id     uuid.UUID
	cfg    Config
	state  State
	phase  Phase
	cards  []domain.Flashcard
	seed   []domain.Flashcard // Start set, reused by practice Restart
	index  int
	tally  Tally
	closed bool
}

// New creates an idle session runner.
func New(cfg Config) *Runner {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{id: uuid.New(), cfg: cfg}
}

// ID returns the session identifier.
func (r *Runner) ID() uuid.UUID { return r.id }

// State returns the session's lifecycle stage.
func (r *Runner) State() State { return r.state }

// Phase returns the presentation phase of the current card.
func (r *Runner) Phase() Phase { return r.phase }

// Start begins the session over the given working set. An empty set fails with
// ErrEmptySet and leaves the session idle; the caller shows "nothing due"
// instead of opening the session.
func (r *Runner) Start(dueSet []domain.Flashcard) error {
	if r.closed {
		return ErrSessionClosed
	}
	if r.state != StateIdle {
		return ErrAlreadyStarted
	}
	if len(dueSet) == 0 {
		return ErrEmptySet
	}
	r.cards = append([]domain.Flashcard(nil), dueSet...)
	r.seed = append([]domain.Flashcard(nil), dueSet...)
	r.begin()
	return nil
}

func (r *Runner) begin() {
	r.state = StateInProgress
	r.phase = PhaseShowing
	r.index = 0
	r.tally = Tally{}
}

// Current returns the card being presented, if the session is in progress.
func (r *Runner) Current() (domain.Flashcard, bool) {
	if r.state != StateInProgress {
		return domain.Flashcard{}, false
	}
	return r.cards[r.index], true
}

// Position returns the zero-based index of the current card and the size of
// the working set.
func (r *Runner) Position() (index, total int) {
	return r.index, len(r.cards)
}

// Flip reveals the answer of the current card.
func (r *Runner) Flip() error {
	if r.closed {
		return ErrSessionClosed
	}
	if r.state != StateInProgress {
		return ErrNotInProgress
	}
	if r.phase == PhaseRevealed {
		return ErrAlreadyRevealed
	}
	r.phase = PhaseRevealed
	return nil
}

// Record registers the outcome for the current card and advances the session.
// The card must be revealed first. In graded mode the outcome is persisted
// through the OutcomeWriter before the session moves on; a persistence failure
// is returned to the caller and the session stays on the same card so the
// recording can be retried.
func (r *Runner) Record(ctx context.Context, o leitner.Outcome) error {
	if r.closed {
		return ErrSessionClosed
	}
	if r.state != StateInProgress {
		return ErrNotInProgress
	}
	if r.phase != PhaseRevealed {
		return ErrNotRevealed
	}
	if !o.IsValid() {
		return fmt.Errorf("%w: %d", leitner.ErrInvalidOutcome, int(o))
	}

	if !r.cfg.Practice {
		card := r.cards[r.index]
		updated, err := r.cfg.Writer.RecordOutcome(ctx, card.ID, o, r.cfg.Now())
		if err != nil {
			return fmt.Errorf("record outcome for card %d: %w", card.ID, err)
		}
		r.cards[r.index] = updated
	}

	switch o {
	case leitner.Again:
		r.tally.Again++
	case leitner.Hard:
		r.tally.Hard++
	case leitner.Good:
		r.tally.Good++
	case leitner.Easy:
		r.tally.Easy++
	}

	if r.index == len(r.cards)-1 {
		r.state = StateComplete
		return nil
	}
	r.index++
	r.phase = PhaseShowing
	return nil
}

// Restart begins a fresh pass after the session completed. Graded sessions
// re-select the due set through the DueSource, since the outcomes just applied
// changed what is due; if nothing is due anymore the session lands in the
// terminal nothing-due state. Practice sessions replay the original card list.
func (r *Runner) Restart(ctx context.Context) error {
	if r.closed {
		return ErrSessionClosed
	}
	if r.state != StateComplete && r.state != StateNothingDue {
		return ErrNotComplete
	}

	if r.cfg.Practice {
		r.cards = append([]domain.Flashcard(nil), r.seed...)
		r.begin()
		return nil
	}

	due, err := r.cfg.Source.DueFlashcards(ctx, r.cfg.Subject, r.cfg.Now())
	if err != nil {
		return fmt.Errorf("reselect due cards: %w", err)
	}
	if len(due) == 0 {
		r.state = StateNothingDue
		r.cards = nil
		return nil
	}
	r.cards = due
	r.begin()
	return nil
}

// Summary snapshots the session for display. While in progress it includes the
// current card (answer included only once revealed is the caller's concern).
func (r *Runner) Summary() Summary {
	s := Summary{
		ID:        r.id,
		State:     r.state.String(),
		Phase:     r.phase.String(),
		Subject:   r.cfg.Subject,
		Practice:  r.cfg.Practice,
		Index:     r.index,
		Total:     len(r.cards),
		Tally:     r.tally,
		Reviewed:  r.tally.Total(),
		Correct:   r.tally.Correct(),
		Incorrect: r.tally.Incorrect(),
	}
	if card, ok := r.Current(); ok {
		s.Card = &card
	}
	return s
}

// Close discards the session. Outcomes already recorded were persisted as they
// happened and are not reverted; a partial session leaves partial, valid
// progress.
func (r *Runner) Close() {
	r.closed = true
	r.cards = nil
	r.seed = nil
}
