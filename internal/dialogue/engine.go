package dialogue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rickd5991-stack/jenny-bot/internal/booking"
	"github.com/rickd5991-stack/jenny-bot/internal/observability/metrics"
	"github.com/rickd5991-stack/jenny-bot/pkg/logging"
)

// Outcome classifies what a turn did.
type Outcome string

const (
	OutcomeGreeting     Outcome = "greeting"
	OutcomeAdvanced     Outcome = "advanced"
	OutcomeUnrecognized Outcome = "unrecognized"
	OutcomeRepeat       Outcome = "repeat"
	OutcomeNoInput      Outcome = "no_input"
	OutcomeBooked       Outcome = "booked"
	OutcomeSlotFull     Outcome = "slot_full"
	OutcomeUnavailable  Outcome = "unavailable"
)

// Reply is what a turn produces for the transport to frame.
type Reply struct {
	Text     string
	Terminal bool
	Outcome  Outcome
	// Stage is the stage the turn was handled in.
	Stage Stage
}

// SessionStore holds one record per active session id.
type SessionStore interface {
	GetOrCreate(ctx context.Context, id, callerPhone string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Reserver is the part of the booking ledger the engine writes to.
type Reserver interface {
	Reserve(ctx context.Context, req booking.Request) (booking.Booking, error)
}

// Confirmation is handed to a Confirmer after a booking is recorded.
type Confirmation struct {
	Booking booking.Booking
	Message string
}

// Confirmer sends confirmations out of band. It must not block the turn
// and has no way to report failure back.
type Confirmer interface {
	Confirm(c Confirmation)
}

// Config wires an Engine.
type Config struct {
	Sessions   SessionStore
	Ledger     Reserver
	Confirmer  Confirmer
	Prompts    *Prompts
	DateParser DateParser
	Metrics    *metrics.DialogueMetrics
	Logger     *logging.Logger
	Tracer     trace.Tracer
}

// Engine runs one dialogue turn at a time per session.
type Engine struct {
	sessions  SessionStore
	ledger    Reserver
	confirmer Confirmer
	prompts   Prompts
	dates     DateParser
	metrics   *metrics.DialogueMetrics
	logger    *logging.Logger
	tracer    trace.Tracer
	locks     *keyedMutex
}

// NewEngine builds an engine. Sessions and Ledger are required.
func NewEngine(cfg Config) *Engine {
	if cfg.Sessions == nil {
		panic("dialogue: session store cannot be nil")
	}
	if cfg.Ledger == nil {
		panic("dialogue: ledger cannot be nil")
	}
	prompts := DefaultPrompts()
	if cfg.Prompts != nil {
		prompts = *cfg.Prompts
	}
	dates := cfg.DateParser
	if dates == nil {
		dates = defaultDateParser
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("jenny.internal.dialogue")
	}
	return &Engine{
		sessions:  cfg.Sessions,
		ledger:    cfg.Ledger,
		confirmer: cfg.Confirmer,
		prompts:   prompts,
		dates:     dates,
		metrics:   cfg.Metrics,
		logger:    logger,
		tracer:    tracer,
		locks:     newKeyedMutex(),
	}
}

// Step handles one caller utterance and always returns a reply. Turns for
// the same session id are serialized.
func (e *Engine) Step(ctx context.Context, sessionID, callerPhone, utterance string) Reply {
	ctx, span := e.tracer.Start(ctx, "dialogue.step")
	defer span.End()
	start := time.Now()

	unlock := e.locks.Lock(sessionID)
	defer unlock()

	text := strings.TrimSpace(utterance)
	var reply Reply

	sess, err := e.sessions.GetOrCreate(ctx, sessionID, callerPhone)
	if err != nil {
		e.logger.Error("failed to load session", "error", err, "session_id", sessionID)
		span.RecordError(err)
		reply = Reply{Text: e.prompts.TryAgain, Outcome: OutcomeUnavailable, Stage: StageStart}
	} else {
		reply = e.handle(ctx, sess, text)
	}

	span.SetAttributes(
		attribute.String("jenny.session_id", sessionID),
		attribute.String("jenny.stage", string(reply.Stage)),
		attribute.String("jenny.outcome", string(reply.Outcome)),
	)
	e.metrics.ObserveTurn(string(reply.Stage), string(reply.Outcome), time.Since(start).Seconds())
	e.logger.Debug("dialogue turn", "session_id", sessionID, "stage", reply.Stage, "outcome", reply.Outcome, "terminal", reply.Terminal)
	return reply
}

func (e *Engine) handle(ctx context.Context, sess *Session, text string) Reply {
	stage := sess.Stage
	if text == "" && stage != StageStart {
		return Reply{Text: e.prompts.RepeatPrompt(stage), Outcome: OutcomeNoInput, Stage: stage}
	}

	switch stage {
	case StageStart:
		return e.handleStart(ctx, sess, text)
	case StageName:
		return e.handleName(ctx, sess, text)
	case StageContact:
		return e.handleContact(ctx, sess, text)
	case StageDatetime:
		return e.handleDatetime(ctx, sess, text)
	default:
		e.logger.Error("session in unknown stage", "session_id", sess.ID, "stage", stage)
		return Reply{Text: e.prompts.RepeatAny, Outcome: OutcomeRepeat, Stage: stage}
	}
}

func (e *Engine) handleStart(ctx context.Context, sess *Session, text string) Reply {
	switch {
	case text == "":
		return Reply{Text: e.prompts.Greeting, Outcome: OutcomeGreeting, Stage: StageStart}
	case WantsToBook(text):
		next := sess.Clone()
		return e.advance(ctx, sess.Stage, next, StageName, e.prompts.AskName)
	default:
		return Reply{Text: e.prompts.Unrecognized, Outcome: OutcomeUnrecognized, Stage: StageStart}
	}
}

func (e *Engine) handleName(ctx context.Context, sess *Session, text string) Reply {
	if !IsName(text) {
		return e.repeat(sess.Stage)
	}
	next := sess.Clone()
	next.Name = TitleCase(text)
	return e.advance(ctx, sess.Stage, next, StageContact, e.prompts.ContactPrompt(next.Name))
}

func (e *Engine) handleContact(ctx context.Context, sess *Session, text string) Reply {
	if !IsContact(text) {
		return e.repeat(sess.Stage)
	}
	next := sess.Clone()
	next.Contact = text
	return e.advance(ctx, sess.Stage, next, StageDatetime, e.prompts.AskDatetime)
}

func (e *Engine) handleDatetime(ctx context.Context, sess *Session, text string) Reply {
	if !isDatetime(text, e.dates) {
		return e.repeat(sess.Stage)
	}

	b, err := e.ledger.Reserve(ctx, booking.Request{
		Name:        sess.Name,
		Contact:     sess.Contact,
		SlotText:    text,
		CallerPhone: sess.CallerPhone,
	})
	switch {
	case errors.Is(err, booking.ErrSlotTaken):
		e.metrics.ObserveBooking(string(OutcomeSlotFull))
		e.end(ctx, sess.ID)
		return Reply{Text: e.prompts.SlotFull, Terminal: true, Outcome: OutcomeSlotFull, Stage: StageDatetime}
	case err != nil:
		e.logger.Error("failed to reserve slot", "error", err, "session_id", sess.ID)
		return Reply{Text: e.prompts.TryAgain, Outcome: OutcomeUnavailable, Stage: StageDatetime}
	}

	e.metrics.ObserveBooking(string(OutcomeBooked))
	e.logger.Info("slot booked", "session_id", sess.ID, "booking_id", b.ID, "slot", b.SlotText)
	e.end(ctx, sess.ID)
	if e.confirmer != nil {
		e.confirmer.Confirm(Confirmation{
			Booking: b,
			Message: e.prompts.ConfirmationSMS(b.Name, b.SlotText),
		})
	}
	return Reply{
		Text:     e.prompts.ConfirmationPrompt(b.Name, b.SlotText),
		Terminal: true,
		Outcome:  OutcomeBooked,
		Stage:    StageDatetime,
	}
}

// advance persists next at stage to. The stored record is left as it was
// when the transition or the save fails.
func (e *Engine) advance(ctx context.Context, from Stage, next *Session, to Stage, prompt string) Reply {
	if err := next.Advance(to); err != nil {
		e.logger.Error("refused stage transition", "error", err, "session_id", next.ID)
		return e.repeat(from)
	}
	next.UpdatedAt = time.Now().UTC()
	if err := e.sessions.Save(ctx, next); err != nil {
		e.logger.Error("failed to save session", "error", err, "session_id", next.ID, "stage", to)
		return Reply{Text: e.prompts.TryAgain, Outcome: OutcomeUnavailable, Stage: from}
	}
	return Reply{Text: prompt, Outcome: OutcomeAdvanced, Stage: from}
}

func (e *Engine) repeat(stage Stage) Reply {
	return Reply{Text: e.prompts.RepeatPrompt(stage), Outcome: OutcomeRepeat, Stage: stage}
}

func (e *Engine) end(ctx context.Context, sessionID string) {
	if err := e.sessions.Delete(ctx, sessionID); err != nil {
		e.logger.Warn("failed to delete finished session", "error", err, "session_id", sessionID)
	}
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free and returns its unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
