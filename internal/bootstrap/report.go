package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jonno85/tech-task/internal/domain"
	"github.com/jonno85/tech-task/internal/repository/bank_accounts_repo"
	"github.com/jonno85/tech-task/internal/repository/transactions_repo"
)

type accountView struct {
	ID               int64  `json:"id"`
	OrganizationName string `json:"organization_name"`
	BalanceCents     int64  `json:"balance_cents"`
	IBAN             string `json:"iban"`
	BIC              string `json:"bic"`
}

type transactionView struct {
	ID               int64  `json:"id"`
	CounterpartyName string `json:"counterparty_name"`
	CounterpartyIBAN string `json:"counterparty_iban"`
	CounterpartyBIC  string `json:"counterparty_bic"`
	AmountCents      int64  `json:"amount_cents"`
	AmountCurrency   string `json:"amount_currency"`
	BankAccountID    int64  `json:"bank_account_id"`
	Description      string `json:"description"`
}

type snapshot struct {
	BankAccounts []accountView     `json:"bank_accounts"`
	Transactions []transactionView `json:"transactions"`
}

// Reporter dumps stored accounts and transactions as JSON.
type Reporter struct {
	accounts     bank_accounts_repo.BankAccountRepository
	transactions transactions_repo.TransactionRepository
}

func NewReporter(accounts bank_accounts_repo.BankAccountRepository, transactions transactions_repo.TransactionRepository) *Reporter {
	return &Reporter{accounts: accounts, transactions: transactions}
}

func (r *Reporter) WriteAll(ctx context.Context, w io.Writer) error {
	accounts, err := r.accounts.GetAll(ctx)
	if err != nil {
		return err
	}
	transactions, err := r.transactions.GetAll(ctx)
	if err != nil {
		return err
	}

	out := snapshot{
		BankAccounts: make([]accountView, 0, len(accounts)),
		Transactions: make([]transactionView, 0, len(transactions)),
	}
	for _, a := range accounts {
		out.BankAccounts = append(out.BankAccounts, toAccountView(a))
	}
	for _, t := range transactions {
		out.Transactions = append(out.Transactions, toTransactionView(t))
	}
	return writeIndented(w, out)
}

// WriteTransaction writes the first transaction paid to the named counterparty.
func (r *Reporter) WriteTransaction(ctx context.Context, w io.Writer, name string) error {
	t, err := r.transactions.GetByName(ctx, name)
	if err != nil {
		return err
	}
	return writeIndented(w, toTransactionView(*t))
}

func toAccountView(a domain.BankAccount) accountView {
	return accountView{
		ID:               a.ID,
		OrganizationName: a.OrganizationName,
		BalanceCents:     a.BalanceCents,
		IBAN:             a.IBAN,
		BIC:              a.BIC,
	}
}

func toTransactionView(t domain.Transaction) transactionView {
	return transactionView{
		ID:               t.ID,
		CounterpartyName: t.CounterpartyName,
		CounterpartyIBAN: t.CounterpartyIBAN,
		CounterpartyBIC:  t.CounterpartyBIC,
		AmountCents:      t.AmountCents,
		AmountCurrency:   t.AmountCurrency,
		BankAccountID:    t.BankAccountID,
		Description:      t.Description,
	}
}

func writeIndented(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
