package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/validate"
	"github.com/google/uuid"
)

// DefaultCallTimeout bounds each interpreter, analyzer or store call.
const DefaultCallTimeout = 60 * time.Second

var (
	confirmWords = map[string]bool{"si": true, "sí": true, "dale": true, "confirmo": true, "ok": true, "yes": true}
	cancelWords  = map[string]bool{"no": true, "cancelar": true, "cancel": true}
)

// SessionConfig wires a Session to its collaborators.
type SessionConfig struct {
	Interpreter Interpreter
	Analyzer    ReceiptAnalyzer
	Store       Store
	Logger      *slog.Logger
	Reducer     *Reducer
	ID          string
	CallTimeout time.Duration
}

// Session holds one conversation and sequences external calls around reducer dispatches.
// At most one external call is in flight per session; concurrent callers get common.ErrBusy.
type Session struct {
	lastActive  time.Time
	interpreter Interpreter
	analyzer    ReceiptAnalyzer
	store       Store
	logger      *slog.Logger
	cancel      context.CancelFunc
	reducer     Reducer
	id          string
	state       State
	generation  uint64
	timeout     time.Duration
	mu          sync.Mutex
	processing  bool
}

// NewSession creates a session in the initial state.
func NewSession(cfg SessionConfig) *Session {
	reducer := NewReducer()
	if cfg.Reducer != nil {
		reducer = *cfg.Reducer
	}
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	return &Session{
		id:          id,
		interpreter: cfg.Interpreter,
		analyzer:    cfg.Analyzer,
		store:       cfg.Store,
		logger:      common.ComponentLogger(cfg.Logger, "chat").With("session", id),
		reducer:     reducer,
		state:       reducer.InitialState(),
		timeout:     timeout,
		lastActive:  reducer.now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns a snapshot of the conversation.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsProcessing reports whether an external call is in flight.
func (s *Session) IsProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

// LastActive returns when the session last accepted input.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// dispatch applies events. Callers hold s.mu.
func (s *Session) dispatch(events ...Event) {
	for _, ev := range events {
		s.state = s.reducer.Reduce(s.state, ev)
	}
	s.lastActive = s.reducer.now()
}

// begin marks an external call as started and returns its context and generation.
// Callers hold s.mu.
func (s *Session) begin(ctx context.Context) (context.Context, uint64) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	s.processing = true
	s.cancel = cancel
	return callCtx, s.generation
}

// finish re-acquires the lock after an external call. It reports false,
// leaving the lock released, when a Reset happened while the call was in flight.
func (s *Session) finish(gen uint64) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("Discarding stale result", "generation", gen)
		return false
	}
	s.processing = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return true
}

// SendMessage handles one line of user text.
// While an action is pending the text is only matched against confirm and cancel words.
func (s *Session) SendMessage(ctx context.Context, text string) (State, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.State(), nil
	}

	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return State{}, common.ErrBusy
	}

	if s.state.PendingAction != nil {
		s.dispatch(AddUserMessage{Text: text})
		switch classifyReply(text) {
		case replyConfirm:
			return s.confirmLocked(ctx)
		case replyCancel:
			s.dispatch(CancelAction{})
		default:
			s.dispatch(AddAssistantMessage{Text: PendingReminderText})
		}
		state := s.state
		s.mu.Unlock()
		return state, nil
	}

	s.dispatch(AddUserMessage{Text: text})
	flow := s.state.CurrentFlow
	collected := s.state.CollectedData
	callCtx, gen := s.begin(ctx)
	s.mu.Unlock()

	interpretation, err := s.interpret(callCtx, text, flow, collected)

	if !s.finish(gen) {
		return s.State(), nil
	}
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Error("Interpreter failed", "error", err)
		s.dispatch(AddErrorMessage{Text: InterpretErrorText})
		return s.state, nil
	}

	s.dispatch(ProcessIntent{Interpretation: *interpretation})
	return s.state, nil
}

func (s *Session) interpret(ctx context.Context, text string, flow *FlowType, collected CollectedData) (*Interpretation, error) {
	if s.interpreter == nil {
		return nil, fmt.Errorf("%w: interpreter", common.ErrMissingConfig)
	}

	in, err := s.interpreter.Interpret(ctx, text, flow, collected.Map())
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, errors.New("interpreter returned no result")
	}
	if !in.Intent.Valid() {
		s.logger.Warn("Interpreter returned unknown intent", "intent", in.Intent)
		in.Intent = IntentUnknown
	}

	if in.IsComplete && in.Intent == IntentContributeGoal {
		resolved := s.resolveGoal(ctx, *in, collected)
		return &resolved, nil
	}
	return in, nil
}

// resolveGoal fills goalId from goalName (or the reverse) using the store's goals.
func (s *Session) resolveGoal(ctx context.Context, in Interpretation, collected CollectedData) Interpretation {
	merged := collected.Merge(in.ExtractedData)
	if s.store == nil || (merged.GoalID != nil && merged.GoalName != nil) {
		return in
	}

	goals, err := s.store.Goals(ctx)
	if err != nil {
		s.logger.Warn("Failed to load goals", "error", err)
		return in
	}

	extracted := make(map[string]any, len(in.ExtractedData)+2)
	maps.Copy(extracted, in.ExtractedData)

	for _, g := range goals {
		byID := merged.GoalID != nil && *merged.GoalID == g.ID
		byName := merged.GoalID == nil && merged.GoalName != nil &&
			strings.EqualFold(strings.TrimSpace(*merged.GoalName), strings.TrimSpace(g.Name))
		if byID || byName {
			extracted["goalId"] = g.ID
			extracted["goalName"] = g.Name
			in.ExtractedData = extracted
			return in
		}
	}

	if merged.GoalName != nil {
		in.IsComplete = false
		in.Response = fmt.Sprintf(goalNotFoundTemplate, validate.Sanitize(*merged.GoalName, validate.MaxGoalNameLen))
		if names := goalNames(goals); names != "" {
			in.Response += " Tenés: " + names + "."
		}
	}
	return in
}

func goalNames(goals []model.Goal) string {
	names := make([]string, 0, len(goals))
	for _, g := range goals {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}

// AnalyzeReceipt runs the receipt analyzer on an upload and, when the result
// validates, asks the user to confirm the extracted transaction.
func (s *Session) AnalyzeReceipt(ctx context.Context, upload Upload) (State, error) {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return State{}, common.ErrBusy
	}

	s.dispatch(AddUserImage{URL: upload.URL})
	if s.state.PendingAction != nil {
		s.dispatch(AddAssistantMessage{Text: PendingReminderText})
		state := s.state
		s.mu.Unlock()
		return state, nil
	}

	s.dispatch(AddAssistantMessage{Text: AnalyzingText})
	callCtx, gen := s.begin(ctx)
	s.mu.Unlock()

	result, err := s.analyze(callCtx, upload)

	if !s.finish(gen) {
		return s.State(), nil
	}
	defer s.mu.Unlock()

	switch {
	case err != nil:
		s.logger.Error("Receipt analysis failed", "error", err, "file", upload.Name)
		s.dispatch(AddErrorMessage{Text: ReceiptErrorText})
	case !result.Success || result.Data == nil:
		msg := strings.TrimSpace(result.Error)
		if msg == "" {
			msg = ReceiptFailedText
		}
		s.dispatch(AddErrorMessage{Text: msg})
	default:
		data := validate.Transaction(result.Data.Fields(), s.reducer.now())
		if data == nil {
			s.logger.Info("Receipt data rejected by validation", "file", upload.Name)
			s.dispatch(AddErrorMessage{Text: ReceiptInvalidText})
		} else {
			s.dispatch(SetReceiptData{Data: *data})
		}
	}
	return s.state, nil
}

func (s *Session) analyze(ctx context.Context, upload Upload) (*ReceiptResult, error) {
	if s.analyzer == nil {
		return nil, fmt.Errorf("%w: receipt analyzer", common.ErrMissingConfig)
	}
	result, err := s.analyzer.Analyze(ctx, upload)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("receipt analyzer returned no result")
	}
	return result, nil
}

// Confirm commits the pending action through the store.
// On store failure the action stays pending so the user can confirm again.
func (s *Session) Confirm(ctx context.Context) (State, error) {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return State{}, common.ErrBusy
	}
	return s.confirmLocked(ctx)
}

// confirmLocked is entered with s.mu held and returns with it released.
func (s *Session) confirmLocked(ctx context.Context) (State, error) {
	action := s.state.PendingAction
	if action == nil {
		state := s.state
		s.mu.Unlock()
		return state, common.ErrNoPendingAction
	}

	callCtx, gen := s.begin(ctx)
	s.mu.Unlock()

	err := s.commit(callCtx, action)

	if !s.finish(gen) {
		return s.State(), nil
	}
	defer s.mu.Unlock()

	if err != nil {
		s.logger.Error("Failed to commit action", "kind", action.Kind, "error", err)
		s.dispatch(AddErrorMessage{Text: ConfirmFailedText})
		return s.state, nil
	}

	s.logger.Info("Committed action", "kind", action.Kind)
	s.dispatch(ActionCompleted{})
	return s.state, nil
}

func (s *Session) commit(ctx context.Context, action *model.PendingAction) error {
	if s.store == nil {
		return fmt.Errorf("%w: store", common.ErrMissingConfig)
	}
	switch p := action.Payload.(type) {
	case model.TransactionData:
		return s.store.CreateTransaction(ctx, p)
	case model.BudgetData:
		return s.store.CreateBudget(ctx, p)
	case model.GoalContributionData:
		return s.store.ContributeToGoal(ctx, p.GoalID, p.Amount)
	default:
		return fmt.Errorf("%w: unsupported action %q", common.ErrInvalidInput, action.Kind)
	}
}

// Cancel declines the pending action and abandons the active flow. With
// nothing in progress it returns ErrNoPendingAction and leaves the
// conversation untouched.
func (s *Session) Cancel() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing {
		return State{}, common.ErrBusy
	}
	if s.state.PendingAction == nil && s.state.CurrentFlow == nil && s.state.CollectedData.IsEmpty() {
		return s.state, common.ErrNoPendingAction
	}
	s.dispatch(CancelAction{})
	return s.state, nil
}

// StartFlow selects a flow explicitly. It is ignored while an action is pending.
func (s *Session) StartFlow(flow FlowType) (State, error) {
	if !flow.Valid() {
		return State{}, fmt.Errorf("%w: unknown flow %q", common.ErrInvalidInput, flow)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing {
		return State{}, common.ErrBusy
	}
	s.dispatch(StartFlow{Flow: flow})
	return s.state, nil
}

// Reset restores the initial conversation. An in-flight call is cancelled
// and its eventual result discarded.
func (s *Session) Reset() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.processing = false
	s.dispatch(Reset{})
	return s.state
}

// Close cancels any in-flight call.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.processing = false
}

type reply int

const (
	replyOther reply = iota
	replyConfirm
	replyCancel
)

// classifyReply decides a short answer by its first word. A later word from
// the opposite set, or a "pero", turns it into a free-form reply.
func classifyReply(text string) reply {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return replyOther
	}

	var first reply
	switch {
	case confirmWords[words[0]]:
		first = replyConfirm
	case cancelWords[words[0]]:
		first = replyCancel
	default:
		return replyOther
	}
	for _, w := range words[1:] {
		if w == "pero" ||
			(first == replyConfirm && cancelWords[w]) ||
			(first == replyCancel && confirmWords[w]) {
			return replyOther
		}
	}
	return first
}
