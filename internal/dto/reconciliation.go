package dto

import (
	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// StatementLineRequest is one bank statement line. Deposits are positive.
type StatementLineRequest struct {
	Reference   string          `json:"reference"`
	Date        Date            `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// ReconcileRequest carries a bank statement to match against the ledger.
type ReconcileRequest struct {
	StatementLines []StatementLineRequest `json:"statementLines" binding:"required,min=1,dive"`
	From           *Date                  `json:"from"`
	To             *Date                  `json:"to"`
	ToleranceDays  *int                   `json:"toleranceDays" binding:"omitempty,min=0,max=31"`
	ClosingBalance *decimal.Decimal       `json:"closingBalance"`
	Currency       string                 `json:"currency" binding:"omitempty,len=3,uppercase"`
}

// ToDomain converts the request into the reconciliation input.
func (r ReconcileRequest) ToDomain() domain.ReconciliationRequest {
	lines := make([]domain.StatementLine, len(r.StatementLines))
	for i, l := range r.StatementLines {
		lines[i] = domain.StatementLine{
			Reference:   l.Reference,
			Date:        l.Date.Time,
			Amount:      l.Amount,
			Description: l.Description,
		}
	}
	req := domain.ReconciliationRequest{
		Lines:          lines,
		ToleranceDays:  r.ToleranceDays,
		ClosingBalance: r.ClosingBalance,
		Currency:       r.Currency,
	}
	if r.From != nil {
		from := r.From.Time
		req.From = &from
	}
	if r.To != nil {
		to := r.To.Time
		req.To = &to
	}
	return req
}

// StatementLineResponse echoes a statement line.
type StatementLineResponse struct {
	Reference   string `json:"reference"`
	Date        Date   `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// LedgerItemResponse is a bank account journal line.
type LedgerItemResponse struct {
	EntryID     string `json:"entryID"`
	LineID      string `json:"lineID"`
	Date        Date   `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	SourceType  string `json:"sourceType"`
}

// MatchResponse pairs a statement line with a ledger line.
type MatchResponse struct {
	Statement StatementLineResponse `json:"statement"`
	Ledger    LedgerItemResponse    `json:"ledger"`
	DaysApart int                   `json:"daysApart"`
}

// ReconciliationResponse is the outcome of a reconciliation run.
type ReconciliationResponse struct {
	AccountCode        string                  `json:"accountCode"`
	Currency           string                  `json:"currency"`
	FromDate           Date                    `json:"fromDate"`
	ToDate             Date                    `json:"toDate"`
	ToleranceDays      int                     `json:"toleranceDays"`
	Matched            []MatchResponse         `json:"matched"`
	UnmatchedLedger    []LedgerItemResponse    `json:"unmatchedLedger"`
	UnmatchedStatement []StatementLineResponse `json:"unmatchedStatement"`
	LedgerBalance      string                  `json:"ledgerBalance"`
	ClosingBalance     *string                 `json:"closingBalance,omitempty"`
	Difference         *string                 `json:"difference,omitempty"`
	Reconciled         bool                    `json:"reconciled"`
}

func toStatementLineResponse(l domain.StatementLine) StatementLineResponse {
	return StatementLineResponse{Reference: l.Reference, Date: NewDate(l.Date), Amount: Amount(l.Amount), Description: l.Description}
}

func toLedgerItemResponse(l domain.LedgerItem) LedgerItemResponse {
	return LedgerItemResponse{
		EntryID:     l.EntryID,
		LineID:      l.LineID,
		Date:        NewDate(l.Date),
		Amount:      Amount(l.Amount),
		Description: l.Description,
		SourceType:  string(l.SourceType),
	}
}

// ToReconciliationResponse converts a domain.ReconciliationResult.
func ToReconciliationResponse(r *domain.ReconciliationResult) ReconciliationResponse {
	resp := ReconciliationResponse{
		AccountCode:        r.AccountCode,
		Currency:           r.Currency,
		FromDate:           NewDate(r.Range.From),
		ToDate:             NewDate(r.Range.To),
		ToleranceDays:      r.ToleranceDays,
		Matched:            make([]MatchResponse, len(r.Matched)),
		UnmatchedLedger:    make([]LedgerItemResponse, len(r.UnmatchedLedger)),
		UnmatchedStatement: make([]StatementLineResponse, len(r.UnmatchedStatement)),
		LedgerBalance:      Amount(r.LedgerBalance),
		Reconciled:         r.IsReconciled(),
	}
	for i, m := range r.Matched {
		resp.Matched[i] = MatchResponse{
			Statement: toStatementLineResponse(m.Statement),
			Ledger:    toLedgerItemResponse(m.Ledger),
			DaysApart: m.DaysApart,
		}
	}
	for i, l := range r.UnmatchedLedger {
		resp.UnmatchedLedger[i] = toLedgerItemResponse(l)
	}
	for i, l := range r.UnmatchedStatement {
		resp.UnmatchedStatement[i] = toStatementLineResponse(l)
	}
	if r.ClosingBalance != nil {
		s := Amount(*r.ClosingBalance)
		resp.ClosingBalance = &s
	}
	if r.Difference != nil {
		s := Amount(*r.Difference)
		resp.Difference = &s
	}
	return resp
}
