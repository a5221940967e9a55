package chat

import (
	"fmt"
	"strings"

	"github.com/Veraticus/cashmind/internal/model"
	"github.com/shopspring/decimal"
)

// Canned assistant messages.
const (
	WelcomeText          = "¡Hola! Soy tu asistente financiero. ¿Qué te gustaría hacer hoy?"
	ActionCompletedText  = "¡Listo! Se guardó correctamente. ¿Necesitás algo más?"
	CancelledText        = "Entendido, cancelé la operación. ¿En qué más puedo ayudarte?"
	ImageSentText        = "Imagen enviada"
	InvalidDataText      = "Algunos datos no parecen válidos. ¿Podés revisarlos y contármelos de nuevo?"
	InterpretErrorText   = "Perdón, hubo un error. ¿Podés intentar de nuevo?"
	AnalyzingText        = "Analizando la imagen..."
	ReceiptInvalidText   = "No pude extraer los datos correctamente. ¿Podés contarme los detalles manualmente?"
	ReceiptFailedText    = "No pude analizar la imagen. Intentá con otra foto más clara."
	ReceiptErrorText     = "Hubo un error al analizar la imagen. Intentá de nuevo."
	ConfirmFailedText    = "No se pudo completar la operación. Intentá de nuevo."
	PendingReminderText  = "Tenés una operación pendiente. Respondé \"sí\" para confirmarla o \"no\" para cancelarla."
	genericConfirmText   = "¿Confirmás esta acción?"
	goalNotFoundTemplate = "No encontré una meta llamada \"%s\". ¿A cuál de tus metas querés aportar?"
)

var flowPrompts = map[FlowType]string{
	FlowCreateExpense:  "¡Dale! Contame sobre tu gasto. ¿Qué compraste y cuánto fue?",
	FlowCreateIncome:   "¡Genial! Registremos tu ingreso. ¿Cuánto cobraste y por qué concepto?",
	FlowCreateBudget:   "Vamos a crear un presupuesto. ¿Para qué categoría y cuál es el límite mensual?",
	FlowContributeGoal: "¿A cuál de tus metas querés aportar y cuánto?",
	FlowAnalyzeReceipt: "Subí una foto del ticket o recibo y lo analizo por vos.",
}

// FlowPrompt returns the opening prompt of a flow.
func FlowPrompt(f FlowType) string {
	return flowPrompts[f]
}

// FormatCurrency renders an amount in Argentine peso style, e.g. "$ 5.000,00".
func FormatCurrency(amount float64) string {
	return FormatDecimal(decimal.NewFromFloat(amount))
}

// FormatDecimal renders a decimal amount in Argentine peso style.
func FormatDecimal(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	return sign + "$ " + b.String() + "," + frac
}

// ConfirmationText builds the yes/no question shown for a pending action.
func ConfirmationText(action *model.PendingAction) string {
	if action == nil {
		return genericConfirmText
	}
	switch p := action.Payload.(type) {
	case model.TransactionData:
		return fmt.Sprintf("¿Confirmo el %s de %s por \"%s\"?", p.Type.Label(), FormatCurrency(p.Amount), p.Description)
	case model.BudgetData:
		return fmt.Sprintf("¿Confirmo crear el presupuesto \"%s\" con límite de %s?", p.Name, FormatCurrency(p.Limit))
	case model.GoalContributionData:
		return fmt.Sprintf("¿Confirmo aportar %s a la meta \"%s\"?", FormatCurrency(p.Amount), p.GoalName)
	default:
		return genericConfirmText
	}
}
