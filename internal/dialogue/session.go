package dialogue

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Stage is the position of a caller in the booking dialogue.
type Stage string

const (
	StageStart    Stage = "start"
	StageName     Stage = "name"
	StageContact  Stage = "contact"
	StageDatetime Stage = "datetime"
)

// stageOrder is the only path a session may take. A session leaves the
// dialogue by being deleted after StageDatetime.
var stageOrder = []Stage{StageStart, StageName, StageContact, StageDatetime}

var (
	// ErrInvalidSession is returned when a record breaks a stage invariant.
	ErrInvalidSession = errors.New("dialogue: invalid session")
	// ErrInvalidTransition is returned for any move other than a single step forward.
	ErrInvalidTransition = errors.New("dialogue: invalid stage transition")
)

func (s Stage) index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	return s.index() >= 0
}

// Next returns the stage that follows s, or false when s is the last stage.
func (s Stage) Next() (Stage, bool) {
	i := s.index()
	if i < 0 || i+1 >= len(stageOrder) {
		return "", false
	}
	return stageOrder[i+1], true
}

// Session is the conversation state for one call leg.
type Session struct {
	ID          string    `json:"id"`
	Stage       Stage     `json:"stage"`
	CallerPhone string    `json:"caller_phone"`
	Name        string    `json:"name,omitempty"`
	Contact     string    `json:"contact,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewSession returns a fresh record at StageStart.
func NewSession(id, callerPhone string, now time.Time) *Session {
	return &Session{
		ID:          id,
		Stage:       StageStart,
		CallerPhone: callerPhone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone returns a copy safe to mutate independently of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// Advance moves the session exactly one stage forward.
func (s *Session) Advance(to Stage) error {
	next, ok := s.Stage.Next()
	if !ok || next != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Stage, to)
	}
	s.Stage = to
	return nil
}

// Validate checks the fields required by the current stage.
func (s *Session) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidSession)
	}
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: id required", ErrInvalidSession)
	}
	switch s.Stage {
	case StageStart, StageName:
	case StageContact:
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: name required at stage %s", ErrInvalidSession, s.Stage)
		}
	case StageDatetime:
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Contact) == "" {
			return fmt.Errorf("%w: name and contact required at stage %s", ErrInvalidSession, s.Stage)
		}
	default:
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidSession, s.Stage)
	}
	return nil
}
