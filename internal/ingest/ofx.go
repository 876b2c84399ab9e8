package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/audithawk/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags at end of line that lost their closing bracket.
	unclosedTagRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Bank export prefixes stripped from payee names.
var payeePrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

// statementLine is one OFX transaction with the account it was reported under.
type statementLine struct {
	txn       ofxgo.Transaction
	accountID string
}

// ParseOFX parses an OFX or QFX statement into audit records. Bank and credit
// card statements are both read; records are numbered in statement order.
func ParseOFX(ctx context.Context, r io.Reader) ([]model.TransactionRecord, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var lines []statementLine
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		for _, txn := range stmt.BankTranList.Transactions {
			lines = append(lines, statementLine{txn: txn, accountID: string(stmt.BankAcctFrom.AcctID)})
		}
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		for _, txn := range stmt.BankTranList.Transactions {
			lines = append(lines, statementLine{txn: txn, accountID: string(stmt.CCAcctFrom.AcctID)})
		}
	}

	if len(lines) == 0 {
		return nil, ErrNoDataRows
	}

	records := make([]model.TransactionRecord, 0, len(lines))
	for i, line := range lines {
		records = append(records, convertOFX(i+1, line))
	}

	slog.Debug("Parsed OFX statement",
		"records", len(records),
		"bank_statements", len(resp.Bank),
		"cc_statements", len(resp.CreditCard))

	return records, nil
}

// preprocessOFX fixes formatting issues common in bank exports.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return unclosedTagRegex.ReplaceAllString(content, "$1>")
}

func convertOFX(index int, line statementLine) model.TransactionRecord {
	// OFX reports debits as negative amounts; the audit threshold works on magnitude.
	amount, _ := line.txn.TrnAmt.Float64()
	if amount < 0 {
		amount = -amount
	}

	txnID := string(line.txn.FiTID)
	if txnID == "" {
		txnID = model.SyntheticTransactionID(index)
	}

	var date string
	if posted := line.txn.DtPosted.Time; !posted.IsZero() {
		date = posted.Format("2006-01-02")
	}

	return model.TransactionRecord{
		Index:         index,
		TransactionID: txnID,
		Date:          date,
		Amount:        amount,
		Merchant:      payeeName(line.txn),
		Category:      fmt.Sprintf("%v", line.txn.TrnType),
		AccountID:     line.accountID,
		Status:        model.StatusPending,
	}
}

// payeeName prefers PAYEE, then NAME, then MEMO when NAME is generic.
func payeeName(txn ofxgo.Transaction) string {
	if txn.Payee != nil && txn.Payee.Name != "" {
		return strings.TrimSpace(string(txn.Payee.Name))
	}

	name := strings.TrimSpace(string(txn.Name))
	if txn.Memo != "" && isGenericDescription(name) {
		name = strings.TrimSpace(string(txn.Memo))
	}

	for _, prefix := range payeePrefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// "MM/DD " date stamps some banks prepend.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	default:
		return false
	}
}
