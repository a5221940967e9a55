package validate

import (
	"time"

	"github.com/Veraticus/cashmind/internal/model"
)

// Transaction validates extracted transaction data.
// An invalid or missing date becomes today; an unknown category becomes "other".
func Transaction(input any, today time.Time) *model.TransactionData {
	d, ok := fields(input)
	if !ok {
		return nil
	}

	amt, ok := amount(d["amount"])
	if !ok {
		return nil
	}

	rawDesc, ok := str(d["description"])
	if !ok || rawDesc == "" {
		return nil
	}

	typ := model.TransactionType(stringOf(d["type"]))
	if !typ.Valid() {
		return nil
	}

	desc := Sanitize(rawDesc, MaxDescriptionLen)
	if desc == "" {
		return nil
	}

	date := stringOf(d["date"])
	if !validDate(date) {
		date = today.Format(model.DateLayout)
	}

	category := stringOf(d["category"])
	if !model.IsValidCategory(typ, category) {
		category = model.CategoryOther
	}

	var notes string
	if n := stringOf(d["notes"]); n != "" {
		notes = Sanitize(n, MaxNotesLen)
	}

	return &model.TransactionData{
		Amount:      amt,
		Description: desc,
		Date:        date,
		Type:        typ,
		Category:    category,
		Notes:       notes,
	}
}

func validDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(model.DateLayout, s)
	return err == nil
}
