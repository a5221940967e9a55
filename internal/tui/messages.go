package tui

import "github.com/Veraticus/cashmind/internal/chat"

// stateMsg carries the session state after an asynchronous call.
// A zero state means the call was rejected before touching the conversation.
type stateMsg struct {
	err   error
	state chat.State
}
