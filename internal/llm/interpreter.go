package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/cashmind/internal/chat"
	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
)

const fallbackResponse = "¿Me contás un poco más?"

// Interpreter implements chat.Interpreter with a language model.
type Interpreter struct {
	client Client
	logger *slog.Logger
	now    func() time.Time
}

// NewInterpreter creates an interpreter on top of client.
func NewInterpreter(client Client, logger *slog.Logger) *Interpreter {
	return &Interpreter{
		client: client,
		logger: common.ComponentLogger(logger, "interpreter"),
		now:    time.Now,
	}
}

type interpretReply struct {
	ExtractedData map[string]any `json:"extractedData"`
	Intent        string         `json:"intent"`
	Response      string         `json:"response"`
	MissingFields []string       `json:"missingFields"`
	IsComplete    bool           `json:"isComplete"`
}

// Interpret classifies text in the context of the active flow and collected fields.
func (i *Interpreter) Interpret(ctx context.Context, text string, flow *chat.FlowType, collected map[string]any) (*chat.Interpretation, error) {
	var flowName string
	if flow != nil {
		flowName = string(*flow)
	}

	out, err := i.client.Complete(ctx, Request{
		System:      interpretSystemPrompt(i.now().Format(model.DateLayout)),
		Prompt:      interpretUserPrompt(text, flowName, collected),
		JSON:        true,
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}

	var reply interpretReply
	if err := decodeJSON(out, &reply); err != nil {
		i.logger.Warn("Unparseable interpreter reply", "error", err)
		return nil, err
	}

	response := strings.TrimSpace(reply.Response)
	if response == "" {
		response = fallbackResponse
	}

	return &chat.Interpretation{
		Intent:        chat.Intent(strings.ToLower(strings.TrimSpace(reply.Intent))),
		ExtractedData: reply.ExtractedData,
		MissingFields: reply.MissingFields,
		Response:      response,
		IsComplete:    reply.IsComplete,
	}, nil
}
