package seed_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/SscSPs/school_ledger/internal/core/services"
	"github.com/SscSPs/school_ledger/internal/platform/config"
	"github.com/SscSPs/school_ledger/internal/platform/seed"
	"github.com/SscSPs/school_ledger/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schoolSeed = `
currencies:
  - code: USD
    symbol: "$"
    name: US Dollar
  - code: EUR
    symbol: "€"
    name: Euro
    precision: 2
exchange_rates:
  - from: EUR
    to: USD
    rate: "1.08"
    effective_date: "2026-01-01"
accounts:
  - code: "1000"
    name: Assets
    type: ASSET
  - code: "1110"
    name: Operating Bank
    parent: "1000"
    currency: USD
  - code: "3000"
    name: Equity
    type: EQUITY
  - code: "3900"
    name: Retained Earnings
    parent: "3000"
  - code: "4000"
    name: Revenue
    type: REVENUE
periods:
  - name: January 2026
    start: "2026-01-01"
    end: "2026-01-31"
cash_flow:
  fee_payment: operating
  grant: financing
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(schoolSeed), 0o600))

	f, err := seed.Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Currencies, 2)
	assert.Len(t, f.Accounts, 5)
	require.NotNil(t, f.Currencies[1].Precision)
	assert.EqualValues(t, 2, *f.Currencies[1].Precision)

	mapping := f.CashFlowMapping()
	assert.Equal(t, domain.BucketFinancing, mapping.Bucket("grant"))
	assert.Equal(t, domain.BucketInvesting, mapping.Bucket(domain.SourceAssetPurchase), "defaults are kept")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := seed.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"lowercase currency": "currencies:\n  - code: usd\n    symbol: $\n    name: Dollar\n",
		"bad date":           "periods:\n  - name: Jan\n    start: 01/01/2026\n    end: \"2026-01-31\"\n",
		"unknown bucket":     "cash_flow:\n  fee_payment: sideways\n",
		"bad account type":   "accounts:\n  - code: \"1\"\n    name: X\n    type: STUFF\n",
		"child before parent": "accounts:\n  - code: \"1100\"\n    name: Cash\n    parent: \"1000\"\n" +
			"  - code: \"1000\"\n    name: Assets\n    type: ASSET\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := seed.Parse([]byte(doc))
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestApply_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{BaseCurrency: "USD", RetainedEarningsAccount: "3900"}
	container := services.NewServiceContainer(cfg, memory.NewRepositoryProvider(nil))

	f, err := seed.Parse([]byte(schoolSeed))
	require.NoError(t, err)

	first, err := seed.Apply(ctx, f, container, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 9, first.Created)
	assert.Zero(t, first.Skipped)

	second, err := seed.Apply(ctx, f, container, quietLogger())
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Equal(t, 9, second.Skipped)

	bank, err := container.Account.GetAccount(ctx, "1110")
	require.NoError(t, err)
	assert.Equal(t, domain.Asset, bank.Type)
	assert.Equal(t, seed.SystemUser, bank.CreatedBy)

	period, err := container.Period.FindPeriodForDate(ctx, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "January 2026", period.Name)
}
