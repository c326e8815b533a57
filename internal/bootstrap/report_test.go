package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonno85/tech-task/internal/domain"
	accountmocks "github.com/jonno85/tech-task/internal/repository/bank_accounts_repo/mocks"
	transactionmocks "github.com/jonno85/tech-task/internal/repository/transactions_repo/mocks"
)

func newTestReporter(t *testing.T) (*Reporter, *accountmocks.MockBankAccountRepository, *transactionmocks.MockTransactionRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	accounts := accountmocks.NewMockBankAccountRepository(ctrl)
	transactions := transactionmocks.NewMockTransactionRepository(ctrl)
	return NewReporter(accounts, transactions), accounts, transactions
}

func TestReporter_WriteAll(t *testing.T) {
	ctx := context.Background()
	reporter, accounts, transactions := newTestReporter(t)
	accounts.EXPECT().GetAll(ctx).Return([]domain.BankAccount{
		{ID: 1, OrganizationName: "ACME Corp", BalanceCents: 9976901484, IBAN: "FR10474608000002006107XXXXX", BIC: "OIVUSCLQXXX"},
	}, nil)
	transactions.EXPECT().GetAll(ctx).Return([]domain.Transaction{
		{ID: 10, CounterpartyName: "Bip Bip", CounterpartyIBAN: "EE383680981021245685", CounterpartyBIC: "CRLYFRPPTOU",
			AmountCents: 1450, AmountCurrency: "EUR", BankAccountID: 1, Description: "Wonderland/4410"},
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, reporter.WriteAll(ctx, &buf))

	var got map[string][]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got["bank_accounts"], 1)
	require.Len(t, got["transactions"], 1)
	assert.Equal(t, float64(9976901484), got["bank_accounts"][0]["balance_cents"])
	assert.Equal(t, "Bip Bip", got["transactions"][0]["counterparty_name"])
	assert.Equal(t, float64(1450), got["transactions"][0]["amount_cents"])
}

func TestReporter_WriteAllEmpty(t *testing.T) {
	ctx := context.Background()
	reporter, accounts, transactions := newTestReporter(t)
	accounts.EXPECT().GetAll(ctx).Return([]domain.BankAccount{}, nil)
	transactions.EXPECT().GetAll(ctx).Return([]domain.Transaction{}, nil)

	var buf bytes.Buffer
	require.NoError(t, reporter.WriteAll(ctx, &buf))

	assert.JSONEq(t, `{"bank_accounts": [], "transactions": []}`, buf.String())
}

func TestReporter_WriteAllAccountFailure(t *testing.T) {
	ctx := context.Background()
	reporter, accounts, _ := newTestReporter(t)
	failure := domain.NewFailure(domain.ErrorCodeDatabaseError, "Cannot get values")
	accounts.EXPECT().GetAll(ctx).Return(nil, failure)

	err := reporter.WriteAll(ctx, &bytes.Buffer{})

	assert.ErrorIs(t, err, failure)
}

func TestReporter_WriteTransaction(t *testing.T) {
	ctx := context.Background()
	reporter, _, transactions := newTestReporter(t)
	transactions.EXPECT().GetByName(ctx, "Bugs Bunny").Return(&domain.Transaction{
		ID: 12, CounterpartyName: "Bugs Bunny", AmountCents: 99900, AmountCurrency: "EUR", BankAccountID: 1,
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, reporter.WriteTransaction(ctx, &buf, "Bugs Bunny"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, float64(12), got["id"])
	assert.Equal(t, float64(99900), got["amount_cents"])
}

func TestReporter_WriteTransactionNotFound(t *testing.T) {
	ctx := context.Background()
	reporter, _, transactions := newTestReporter(t)
	transactions.EXPECT().GetByName(ctx, "Nobody").
		Return(nil, domain.NewFailure(domain.ErrorCodeTransactionNotFound, "There is no transaction that matches this name"))

	err := reporter.WriteTransaction(ctx, &bytes.Buffer{}, "Nobody")

	failure, ok := domain.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrorCodeTransactionNotFound, failure.Code)
}
