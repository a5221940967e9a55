package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/cashmind/internal/chat"
	"github.com/Veraticus/cashmind/internal/config"
)

const replHelp = `Comandos:
  /confirmar       confirma la operación pendiente
  /cancelar        cancela la operación o el flujo actual
  /flujo <nombre>  inicia un flujo (create_expense, create_income, create_budget, contribute_goal, analyze_receipt)
  /recibo <ruta>   analiza una foto o PDF de un comprobante
  /reset           empieza una conversación nueva
  /salir           termina la sesión`

// REPL is the plain line-based chat used when no terminal UI is available.
type REPL struct {
	session  *chat.Session
	reader   *NonBlockingReader
	out      io.Writer
	readFile func(string) ([]byte, error)
	printed  int
}

// NewREPL creates a REPL over session reading commands from in.
func NewREPL(session *chat.Session, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		session:  session,
		reader:   NewNonBlockingReader(in),
		out:      out,
		readFile: os.ReadFile,
	}
}

// Run reads lines until /salir, end of input or cancellation of ctx.
func (r *REPL) Run(ctx context.Context) error {
	r.println(FormatTitle("CashMind") + "  " + SubtleStyle.Render("/ayuda para ver los comandos"))
	r.flush(r.session.State())

	for {
		r.print(PromptStyle.Render("> "))
		line, err := r.reader.ReadLine(ctx)
		if errors.Is(err, ErrInputCancelled) {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if line != "" {
			if quit := r.handle(ctx, line); quit {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			r.println("")
			return nil
		}
	}
}

// handle runs one input line and reports whether the REPL should stop.
func (r *REPL) handle(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	var (
		state chat.State
		err   error
	)
	switch cmd {
	case "/salir", "/exit":
		r.println(FormatInfo("¡Hasta luego!"))
		return true
	case "/ayuda", "/help":
		r.println(replHelp)
		return false
	case "/reset":
		r.printed = 0
		state = r.session.Reset()
	case "/cancelar":
		state, err = r.session.Cancel()
	case "/confirmar":
		state, err = r.session.Confirm(ctx)
	case "/flujo":
		state, err = r.session.StartFlow(chat.FlowType(arg))
	case "/recibo":
		state, err = r.receipt(ctx, arg)
	default:
		state, err = r.session.SendMessage(ctx, line)
	}

	if err != nil {
		r.println(FormatError(err.Error()))
		return false
	}
	r.flush(state)
	return false
}

func (r *REPL) receipt(ctx context.Context, path string) (chat.State, error) {
	if path == "" {
		return chat.State{}, errors.New("indicá la ruta del comprobante: /recibo <ruta>")
	}
	path = config.ExpandPath(path)
	data, err := r.readFile(path)
	if err != nil {
		return chat.State{}, fmt.Errorf("no pude leer %s: %w", path, err)
	}
	return r.session.AnalyzeReceipt(ctx, chat.Upload{
		Name: filepath.Base(path),
		URL:  path,
		Data: data,
	})
}

// flush prints assistant messages not shown yet. User turns are already on screen.
func (r *REPL) flush(state chat.State) {
	if r.printed > len(state.Messages) {
		r.printed = 0
	}
	for _, msg := range state.Messages[r.printed:] {
		if msg.Role == chat.RoleAssistant {
			r.println(AssistantStyle.Render(msg.Content))
		}
	}
	r.printed = len(state.Messages)

	if state.Phase() == chat.PhaseConfirming {
		r.println(SubtleStyle.Render("Respondé \"sí\" o \"no\" (o /confirmar, /cancelar)."))
	}
}

func (r *REPL) print(s string) {
	if _, err := fmt.Fprint(r.out, s); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
	}
}

func (r *REPL) println(s string) {
	r.print(s + "\n")
}
