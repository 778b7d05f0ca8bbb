package apperrors

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind groups ledger errors by how a caller should react to them.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindStateConflict Kind = "state_conflict"
	KindIntegrity     Kind = "integrity"
)

// LedgerError is implemented by every typed ledger error so transports can render
// the error kind, a stable name, and the relevant fields.
type LedgerError interface {
	error
	Kind() Kind
	Name() string
	Fields() map[string]any
}

const dateFormat = "2006-01-02"

// --- validation ---

// UnbalancedEntryError is returned when a currency group's debits and credits differ.
type UnbalancedEntryError struct {
	Currency    string
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("entry unbalanced in %s: debits %s != credits %s", e.Currency, e.DebitTotal.String(), e.CreditTotal.String())
}
func (e *UnbalancedEntryError) Unwrap() error { return ErrValidation }
func (e *UnbalancedEntryError) Kind() Kind    { return KindValidation }
func (e *UnbalancedEntryError) Name() string  { return "UnbalancedEntryError" }
func (e *UnbalancedEntryError) Fields() map[string]any {
	return map[string]any{
		"currency":     e.Currency,
		"debit_total":  e.DebitTotal.String(),
		"credit_total": e.CreditTotal.String(),
	}
}

// DuplicateAccountError is returned when an account code is already registered.
type DuplicateAccountError struct {
	Code string
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("account %q already exists", e.Code)
}
func (e *DuplicateAccountError) Unwrap() []error { return []error{ErrValidation, ErrDuplicate} }
func (e *DuplicateAccountError) Kind() Kind      { return KindValidation }
func (e *DuplicateAccountError) Name() string    { return "DuplicateAccountError" }
func (e *DuplicateAccountError) Fields() map[string]any {
	return map[string]any{"code": e.Code}
}

// InvalidParentError is returned when a parent account is missing, would form a
// cycle, or has a root type incompatible with the child.
type InvalidParentError struct {
	Code       string
	ParentCode string
	Reason     string
}

func (e *InvalidParentError) Error() string {
	return fmt.Sprintf("invalid parent %q for account %q: %s", e.ParentCode, e.Code, e.Reason)
}
func (e *InvalidParentError) Unwrap() error { return ErrValidation }
func (e *InvalidParentError) Kind() Kind    { return KindValidation }
func (e *InvalidParentError) Name() string  { return "InvalidParentError" }
func (e *InvalidParentError) Fields() map[string]any {
	return map[string]any{"code": e.Code, "parent_code": e.ParentCode, "reason": e.Reason}
}

// PeriodOverlapError is returned when a new period intersects an existing one.
type PeriodOverlapError struct {
	ExistingPeriodID string
	Start            time.Time
	End              time.Time
}

func (e *PeriodOverlapError) Error() string {
	return fmt.Sprintf("period %s..%s overlaps existing period %s", e.Start.Format(dateFormat), e.End.Format(dateFormat), e.ExistingPeriodID)
}
func (e *PeriodOverlapError) Unwrap() error { return ErrValidation }
func (e *PeriodOverlapError) Kind() Kind    { return KindValidation }
func (e *PeriodOverlapError) Name() string  { return "PeriodOverlapError" }
func (e *PeriodOverlapError) Fields() map[string]any {
	return map[string]any{
		"existing_period_id": e.ExistingPeriodID,
		"start_date":         e.Start.Format(dateFormat),
		"end_date":           e.End.Format(dateFormat),
	}
}

// InvalidAmountError is returned for non-positive amounts or amounts with too many fraction digits.
type InvalidAmountError struct {
	AccountCode string
	Amount      string
	Reason      string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s for account %s: %s", e.Amount, e.AccountCode, e.Reason)
}
func (e *InvalidAmountError) Unwrap() error { return ErrValidation }
func (e *InvalidAmountError) Kind() Kind    { return KindValidation }
func (e *InvalidAmountError) Name() string  { return "InvalidAmountError" }
func (e *InvalidAmountError) Fields() map[string]any {
	return map[string]any{"account_code": e.AccountCode, "amount": e.Amount, "reason": e.Reason}
}

// --- state conflict ---

// NoOpenPeriodError is returned when no accounting period covers the transaction date.
type NoOpenPeriodError struct {
	Date time.Time
}

func (e *NoOpenPeriodError) Error() string {
	return fmt.Sprintf("no accounting period covers %s", e.Date.Format(dateFormat))
}
func (e *NoOpenPeriodError) Unwrap() error { return ErrConflict }
func (e *NoOpenPeriodError) Kind() Kind    { return KindStateConflict }
func (e *NoOpenPeriodError) Name() string  { return "NoOpenPeriodError" }
func (e *NoOpenPeriodError) Fields() map[string]any {
	return map[string]any{"transaction_date": e.Date.Format(dateFormat)}
}

// PeriodClosedError is returned when posting into a CLOSED period.
type PeriodClosedError struct {
	PeriodID string
	Date     time.Time
}

func (e *PeriodClosedError) Error() string {
	return fmt.Sprintf("period %s is closed for %s", e.PeriodID, e.Date.Format(dateFormat))
}
func (e *PeriodClosedError) Unwrap() error { return ErrConflict }
func (e *PeriodClosedError) Kind() Kind    { return KindStateConflict }
func (e *PeriodClosedError) Name() string  { return "PeriodClosedError" }
func (e *PeriodClosedError) Fields() map[string]any {
	return map[string]any{"period_id": e.PeriodID, "transaction_date": e.Date.Format(dateFormat)}
}

// PeriodLockedError is returned when posting into a period that is being closed.
// Callers may retry once the close completes or is aborted.
type PeriodLockedError struct {
	PeriodID string
}

func (e *PeriodLockedError) Error() string {
	return fmt.Sprintf("period %s is locked while closing", e.PeriodID)
}
func (e *PeriodLockedError) Unwrap() error { return ErrConflict }
func (e *PeriodLockedError) Kind() Kind    { return KindStateConflict }
func (e *PeriodLockedError) Name() string  { return "PeriodLockedError" }
func (e *PeriodLockedError) Fields() map[string]any {
	return map[string]any{"period_id": e.PeriodID}
}

// PeriodNotOpenError is returned when initiating a close on a period that is not OPEN.
type PeriodNotOpenError struct {
	PeriodID string
	Status   string
}

func (e *PeriodNotOpenError) Error() string {
	return fmt.Sprintf("period %s is %s, expected OPEN", e.PeriodID, e.Status)
}
func (e *PeriodNotOpenError) Unwrap() error { return ErrConflict }
func (e *PeriodNotOpenError) Kind() Kind    { return KindStateConflict }
func (e *PeriodNotOpenError) Name() string  { return "PeriodNotOpenError" }
func (e *PeriodNotOpenError) Fields() map[string]any {
	return map[string]any{"period_id": e.PeriodID, "status": e.Status}
}

// PeriodNotClosingError is returned by completeClose/abortClose on a period that is not CLOSING.
type PeriodNotClosingError struct {
	PeriodID string
	Status   string
}

func (e *PeriodNotClosingError) Error() string {
	return fmt.Sprintf("period %s is %s, expected CLOSING", e.PeriodID, e.Status)
}
func (e *PeriodNotClosingError) Unwrap() error { return ErrConflict }
func (e *PeriodNotClosingError) Kind() Kind    { return KindStateConflict }
func (e *PeriodNotClosingError) Name() string  { return "PeriodNotClosingError" }
func (e *PeriodNotClosingError) Fields() map[string]any {
	return map[string]any{"period_id": e.PeriodID, "status": e.Status}
}

// EarlierPeriodOpenError is returned when a chronologically earlier period is not yet closed.
type EarlierPeriodOpenError struct {
	PeriodID        string
	EarlierPeriodID string
	EarlierStatus   string
}

func (e *EarlierPeriodOpenError) Error() string {
	return fmt.Sprintf("period %s cannot close while earlier period %s is %s", e.PeriodID, e.EarlierPeriodID, e.EarlierStatus)
}
func (e *EarlierPeriodOpenError) Unwrap() error { return ErrConflict }
func (e *EarlierPeriodOpenError) Kind() Kind    { return KindStateConflict }
func (e *EarlierPeriodOpenError) Name() string  { return "EarlierPeriodOpenError" }
func (e *EarlierPeriodOpenError) Fields() map[string]any {
	return map[string]any{
		"period_id":         e.PeriodID,
		"earlier_period_id": e.EarlierPeriodID,
		"earlier_status":    e.EarlierStatus,
	}
}

// AlreadyReversedError is returned when reversing an entry that already has a reversal.
type AlreadyReversedError struct {
	EntryID    string
	ReversedBy string
}

func (e *AlreadyReversedError) Error() string {
	return fmt.Sprintf("entry %s already reversed by %s", e.EntryID, e.ReversedBy)
}
func (e *AlreadyReversedError) Unwrap() error { return ErrConflict }
func (e *AlreadyReversedError) Kind() Kind    { return KindStateConflict }
func (e *AlreadyReversedError) Name() string  { return "AlreadyReversedError" }
func (e *AlreadyReversedError) Fields() map[string]any {
	return map[string]any{"entry_id": e.EntryID, "reversed_by": e.ReversedBy}
}

// AccountInUseError is returned when deactivating an account with a non-zero balance
// under the zero-balance policy.
type AccountInUseError struct {
	Code     string
	Currency string
	Balance  decimal.Decimal
}

func (e *AccountInUseError) Error() string {
	return fmt.Sprintf("account %s still holds %s %s", e.Code, e.Balance.String(), e.Currency)
}
func (e *AccountInUseError) Unwrap() error { return ErrConflict }
func (e *AccountInUseError) Kind() Kind    { return KindStateConflict }
func (e *AccountInUseError) Name() string  { return "AccountInUseError" }
func (e *AccountInUseError) Fields() map[string]any {
	return map[string]any{"code": e.Code, "currency": e.Currency, "balance": e.Balance.String()}
}

// --- integrity ---

// UnbalancedPeriodError is returned when a computed closing entry does not balance or
// does not carry the period's net income. The period stays CLOSING.
type UnbalancedPeriodError struct {
	PeriodID    string
	Currency    string
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
	NetIncome   decimal.Decimal
}

func (e *UnbalancedPeriodError) Error() string {
	return fmt.Sprintf("closing entry for period %s unbalanced in %s: debits %s, credits %s, net income %s",
		e.PeriodID, e.Currency, e.DebitTotal.String(), e.CreditTotal.String(), e.NetIncome.String())
}
func (e *UnbalancedPeriodError) Unwrap() error { return ErrIntegrity }
func (e *UnbalancedPeriodError) Kind() Kind    { return KindIntegrity }
func (e *UnbalancedPeriodError) Name() string  { return "UnbalancedPeriodError" }
func (e *UnbalancedPeriodError) Fields() map[string]any {
	return map[string]any{
		"period_id":    e.PeriodID,
		"currency":     e.Currency,
		"debit_total":  e.DebitTotal.String(),
		"credit_total": e.CreditTotal.String(),
		"net_income":   e.NetIncome.String(),
	}
}

// IntegrityError reports a broken statement identity (trial balance, accounting
// equation, cash flow continuity).
type IntegrityError struct {
	Check   string
	Detail  string
	Amounts map[string]decimal.Decimal
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check %s failed: %s", e.Check, e.Detail)
}
func (e *IntegrityError) Unwrap() error { return ErrIntegrity }
func (e *IntegrityError) Kind() Kind    { return KindIntegrity }
func (e *IntegrityError) Name() string  { return "IntegrityError" }
func (e *IntegrityError) Fields() map[string]any {
	fields := map[string]any{"check": e.Check, "detail": e.Detail}
	for k, v := range e.Amounts {
		fields[k] = v.String()
	}
	return fields
}
