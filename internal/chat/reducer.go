package chat

import (
	"time"

	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/validate"
	"github.com/google/uuid"
)

// Reducer applies events to states. It is pure given its clock and id source.
type Reducer struct {
	Now   func() time.Time
	NewID func() string
}

// NewReducer returns a reducer using the wall clock and random UUIDs.
func NewReducer() Reducer {
	return Reducer{
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

func (r Reducer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r Reducer) newID() string {
	if r.NewID == nil {
		return uuid.NewString()
	}
	return r.NewID()
}

// InitialState is a fresh conversation holding only the welcome message.
func (r Reducer) InitialState() State {
	return State{
		Messages: []Message{{
			ID:        WelcomeMessageID,
			Role:      RoleAssistant,
			Content:   WelcomeText,
			Timestamp: r.now(),
		}},
	}
}

// Reduce returns the state that results from applying ev to s.
// While an action is pending, events that would classify input or
// start new work are ignored.
func (r Reducer) Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case AddUserMessage:
		return s.with(r.message(RoleUser, e.Text, nil))

	case AddUserImage:
		msg := r.message(RoleUser, ImageSentText, nil)
		msg.ImageURL = e.URL
		return s.with(msg)

	case AddAssistantMessage:
		return s.with(r.message(RoleAssistant, e.Text, nil))

	case AddErrorMessage:
		return s.with(r.message(RoleAssistant, e.Text, nil))

	case ProcessIntent:
		if s.PendingAction != nil {
			return s
		}
		return r.processIntent(s, e.Interpretation)

	case StartFlow:
		if s.PendingAction != nil || !e.Flow.Valid() {
			return s
		}
		next := s.with(r.message(RoleAssistant, FlowPrompt(e.Flow), nil))
		flow := e.Flow
		next.CurrentFlow = &flow
		next.CollectedData = CollectedData{}
		return next

	case SetPendingAction:
		if s.PendingAction != nil || e.Action == nil || e.Action.Payload == nil {
			return s
		}
		return r.confirm(s, e.Action, nil)

	case SetReceiptData:
		if s.PendingAction != nil {
			return s
		}
		return r.confirm(s, model.NewPendingAction(e.Data), nil)

	case ActionCompleted:
		return s.cleared().with(r.message(RoleAssistant, ActionCompletedText, nil))

	case CancelAction:
		return s.cleared().with(r.message(RoleAssistant, CancelledText, nil))

	case Reset:
		return r.InitialState()

	default:
		return s
	}
}

func (r Reducer) processIntent(s State, in Interpretation) State {
	next := s.with(r.message(RoleAssistant, in.Response, &MessageMetadata{Intent: in.Intent}))
	merged := s.CollectedData.Merge(in.ExtractedData)

	if in.IsComplete {
		if _, creates := in.Intent.Flow(); creates {
			if action := r.completeAction(in.Intent, merged); action != nil {
				return r.confirm(next, action, &MessageMetadata{Intent: in.Intent})
			}
			next = next.with(r.message(RoleAssistant, InvalidDataText, nil))
		}
	}

	next.CollectedData = merged
	if next.CurrentFlow == nil {
		if flow, ok := in.Intent.Flow(); ok {
			next.CurrentFlow = &flow
		}
	}
	return next
}

// completeAction validates the collected record for a creation intent.
func (r Reducer) completeAction(intent Intent, data CollectedData) *model.PendingAction {
	fields := data.Map()
	switch intent {
	case IntentCreateExpense, IntentCreateIncome:
		typ, _ := intent.TransactionType()
		fields["type"] = string(typ)
		if d := validate.Transaction(fields, r.now()); d != nil {
			return model.NewPendingAction(*d)
		}
	case IntentCreateBudget:
		if d := validate.Budget(fields); d != nil {
			return model.NewPendingAction(*d)
		}
	case IntentContributeGoal:
		if d := validate.GoalContribution(fields); d != nil {
			return model.NewPendingAction(*d)
		}
	}
	return nil
}

// confirm installs action and asks the user to confirm it.
func (r Reducer) confirm(s State, action *model.PendingAction, meta *MessageMetadata) State {
	if meta == nil {
		meta = &MessageMetadata{}
	}
	meta.ConfirmationRequired = true

	next := s.with(r.message(RoleAssistant, ConfirmationText(action), meta))
	next.PendingAction = action
	next.CurrentFlow = nil
	next.CollectedData = CollectedData{}
	return next
}

func (r Reducer) message(role Role, content string, meta *MessageMetadata) Message {
	return Message{
		ID:        r.newID(),
		Role:      role,
		Content:   content,
		Timestamp: r.now(),
		Metadata:  meta,
	}
}

// with returns a copy of s with msgs appended to a freshly allocated slice.
func (s State) with(msgs ...Message) State {
	messages := make([]Message, 0, len(s.Messages)+len(msgs))
	messages = append(messages, s.Messages...)
	messages = append(messages, msgs...)
	s.Messages = messages
	return s
}

// cleared drops the pending action, the active flow and the collected data.
func (s State) cleared() State {
	s.PendingAction = nil
	s.CurrentFlow = nil
	s.CollectedData = CollectedData{}
	return s
}
