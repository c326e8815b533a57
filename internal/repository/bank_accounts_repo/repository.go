package bank_accounts_repo

import (
	"context"

	"github.com/jonno85/tech-task/internal/domain"
)

// BankAccountRepository stores organization bank accounts. Every write runs in
// its own storage transaction; failures are returned as *domain.Failure.
//
//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks -source=repository.go BankAccountRepository
type BankAccountRepository interface {
	Save(ctx context.Context, account *domain.BankAccount) (*domain.BankAccount, error)
	Update(ctx context.Context, account *domain.BankAccount) (*domain.BankAccount, error)
	GetAll(ctx context.Context) ([]domain.BankAccount, error)
	GetByIbanAndBic(ctx context.Context, iban, bic string) (*domain.BankAccount, error)
}
