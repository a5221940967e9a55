package chat

import "github.com/Veraticus/cashmind/internal/model"

// Event is a named state transition. The set of events is closed.
type Event interface {
	isEvent()
}

// AddUserMessage appends a user text message.
type AddUserMessage struct{ Text string }

// AddUserImage appends a user message carrying an image reference.
type AddUserImage struct{ URL string }

// AddAssistantMessage appends an assistant narration message.
type AddAssistantMessage struct{ Text string }

// AddErrorMessage appends a recoverable error notice as an assistant message.
type AddErrorMessage struct{ Text string }

// ProcessIntent applies an interpreter result.
type ProcessIntent struct{ Interpretation Interpretation }

// StartFlow explicitly selects a flow, as a quick action would.
type StartFlow struct{ Flow FlowType }

// SetPendingAction installs an already validated action awaiting confirmation.
type SetPendingAction struct{ Action *model.PendingAction }

// SetReceiptData installs a validated receipt transaction awaiting confirmation.
type SetReceiptData struct{ Data model.TransactionData }

// ActionCompleted records that the store accepted the confirmed action.
type ActionCompleted struct{}

// CancelAction records that the user declined the pending action.
type CancelAction struct{}

// Reset returns the conversation to its initial state.
type Reset struct{}

func (AddUserMessage) isEvent()      {}
func (AddUserImage) isEvent()        {}
func (AddAssistantMessage) isEvent() {}
func (AddErrorMessage) isEvent()     {}
func (ProcessIntent) isEvent()       {}
func (StartFlow) isEvent()           {}
func (SetPendingAction) isEvent()    {}
func (SetReceiptData) isEvent()      {}
func (ActionCompleted) isEvent()     {}
func (CancelAction) isEvent()        {}
func (Reset) isEvent()               {}
