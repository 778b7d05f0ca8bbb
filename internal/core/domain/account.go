package domain

import (
	"fmt"
	"sort"
	"strings"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// AccountTypes lists the account types in statement order.
var AccountTypes = []AccountType{Asset, Liability, Equity, Revenue, Expense}

// IsDebitNormal reports whether balances of the given type naturally sit on the debit side.
func IsDebitNormal(t AccountType) bool {
	switch t {
	case Asset, Expense:
		return true
	default:
		return false
	}
}

// IsNominal reports whether the type is a temporary account reset by period close.
func IsNominal(t AccountType) bool {
	return t == Revenue || t == Expense
}

// ParseAccountType accepts the canonical names case-insensitively. "INCOME" is accepted as Revenue.
func ParseAccountType(s string) (AccountType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(Asset):
		return Asset, nil
	case string(Liability):
		return Liability, nil
	case string(Equity):
		return Equity, nil
	case string(Revenue), "INCOME":
		return Revenue, nil
	case string(Expense):
		return Expense, nil
	}
	return "", fmt.Errorf("unknown account type %q", s)
}

// Account represents a node in the chart of accounts.
type Account struct {
	Code         string      `json:"code"`         // Primary key, immutable
	Name         string      `json:"name"`         // Display name
	Type         AccountType `json:"type"`         // Resolved root type
	ParentCode   string      `json:"parentCode"`   // Empty for root accounts
	CurrencyCode string      `json:"currencyCode"` // Empty means the account accepts any currency
	Description  string      `json:"description"`
	IsActive     bool        `json:"isActive"`
	AuditFields
}

// AcceptsCurrency reports whether lines in currency may be posted to the account.
func (a Account) AcceptsCurrency(currency string) bool {
	return a.CurrencyCode == "" || a.CurrencyCode == currency
}

// AccountFilter narrows ListAccounts.
type AccountFilter struct {
	Type            AccountType
	ParentCode      string
	IncludeInactive bool
}

// Matches reports whether the account passes the filter.
func (f AccountFilter) Matches(a Account) bool {
	if !f.IncludeInactive && !a.IsActive {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.ParentCode != "" && a.ParentCode != f.ParentCode {
		return false
	}
	return true
}

// Chart is an immutable snapshot of the chart of accounts indexed by code.
type Chart struct {
	accounts map[string]Account
	children map[string][]string
}

// NewChart indexes the given accounts by code.
func NewChart(accounts []Account) *Chart {
	c := &Chart{
		accounts: make(map[string]Account, len(accounts)),
		children: make(map[string][]string),
	}
	for _, a := range accounts {
		c.accounts[a.Code] = a
	}
	for _, a := range accounts {
		if a.ParentCode != "" {
			c.children[a.ParentCode] = append(c.children[a.ParentCode], a.Code)
		}
	}
	for k := range c.children {
		sort.Strings(c.children[k])
	}
	return c
}

// Get returns the account with the given code.
func (c *Chart) Get(code string) (Account, bool) {
	a, ok := c.accounts[code]
	return a, ok
}

// Len returns the number of accounts in the chart.
func (c *Chart) Len() int { return len(c.accounts) }

// Accounts returns all accounts ordered by code.
func (c *Chart) Accounts() []Account {
	out := make([]Account, 0, len(c.accounts))
	for _, a := range c.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ResolveType walks the parent chain from code to its root and returns the root's type.
// It fails on unknown codes, dangling parents and cycles.
func (c *Chart) ResolveType(code string) (AccountType, error) {
	root, err := c.Root(code)
	if err != nil {
		return "", err
	}
	return root.Type, nil
}

// Root returns the root ancestor of code.
func (c *Chart) Root(code string) (Account, error) {
	visited := make(map[string]struct{})
	current := code
	for {
		acc, ok := c.accounts[current]
		if !ok {
			return Account{}, fmt.Errorf("account %q not found in chart", current)
		}
		if _, seen := visited[current]; seen {
			return Account{}, fmt.Errorf("cycle detected at account %q", current)
		}
		visited[current] = struct{}{}
		if acc.ParentCode == "" {
			return acc, nil
		}
		current = acc.ParentCode
	}
}

// Descendants returns the codes of code and every account below it, depth first.
func (c *Chart) Descendants(code string) []string {
	out := []string{}
	stack := []string{code}
	seen := make(map[string]struct{})
	for len(stack) > 0 {
		n := len(stack) - 1
		current := stack[n]
		stack = stack[:n]
		if _, ok := seen[current]; ok {
			continue
		}
		seen[current] = struct{}{}
		if _, ok := c.accounts[current]; !ok {
			continue
		}
		out = append(out, current)
		kids := c.children[current]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}
