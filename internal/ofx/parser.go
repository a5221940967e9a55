// Package ofx imports bank and credit card statements from OFX/QFX files.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/cashmind/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Statement is the result of parsing one file.
type Statement struct {
	Transactions []model.Transaction
	Accounts     []string
	Skipped      int
}

// Parser converts OFX/QFX statements into CashMind transactions.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new OFX parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be INFO, WARN or ERROR; some banks send mixed case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML-style files sometimes drop the closing bracket of a bare tag.
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// Parse reads a whole statement file.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) (*Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	stmt := &Statement{}
	seen := make(map[string]bool)
	addAccount := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			stmt.Accounts = append(stmt.Accounts, id)
		}
	}

	for _, msg := range resp.Bank {
		if bank, ok := msg.(*ofxgo.StatementResponse); ok {
			addAccount(string(bank.BankAcctFrom.AcctID))
			p.collect(stmt, bank.BankTranList)
		}
	}
	for _, msg := range resp.CreditCard {
		if cc, ok := msg.(*ofxgo.CCStatementResponse); ok {
			addAccount(string(cc.CCAcctFrom.AcctID))
			p.collect(stmt, cc.BankTranList)
		}
	}

	p.logger.Info("Parsed OFX file",
		"transactions", len(stmt.Transactions),
		"accounts", len(stmt.Accounts),
		"skipped", stmt.Skipped)

	return stmt, nil
}

// ParseFile parses a statement and returns only its transactions.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	stmt, err := p.Parse(ctx, reader)
	if err != nil {
		return nil, err
	}
	return stmt.Transactions, nil
}

func (p *Parser) collect(stmt *Statement, list *ofxgo.TransactionList) {
	if list == nil {
		return
	}
	for _, ofxTx := range list.Transactions {
		tx, ok := p.convertTransaction(ofxTx)
		if !ok {
			stmt.Skipped++
			continue
		}
		stmt.Transactions = append(stmt.Transactions, tx)
	}
}

// convertTransaction maps one statement line. Zero amounts are skipped.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction) (model.Transaction, bool) {
	amountFloat, _ := ofxTx.TrnAmt.Float64()
	amount := decimal.NewFromFloat(amountFloat).Round(2)
	if amount.IsZero() {
		p.logger.Debug("Skipping zero-amount transaction", "fitid", ofxTx.FiTID)
		return model.Transaction{}, false
	}

	txType := model.TypeExpense
	if amount.IsPositive() {
		txType = model.TypeIncome
	}

	trnType := fmt.Sprintf("%v", ofxTx.TrnType)
	description := extractMerchantName(ofxTx)
	if description == "" {
		description = trnType
	}

	tx := model.Transaction{
		Date:        ofxTx.DtPosted.Time,
		Amount:      amount.Abs(),
		Description: description,
		Type:        txType,
		Category:    InferCategory(txType, trnType, description),
		Source:      model.SourceOFX,
		ExternalID:  string(ofxTx.FiTID),
	}
	if ofxTx.CheckNum != "" {
		tx.Notes = "Cheque " + string(ofxTx.CheckNum)
	}
	tx.Hash = tx.GenerateHash()

	return tx, true
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
		"COMPRA DEBITO ",
		"COMPRA CON TARJETA ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
