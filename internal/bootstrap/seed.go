package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonno85/tech-task/internal/domain"
	"github.com/jonno85/tech-task/internal/repository/bank_accounts_repo"
)

// SeedAccount is one entry of a seed file. ID is optional; when set the row
// keeps it so fixtures can reference accounts by id.
type SeedAccount struct {
	ID               int64  `json:"id,omitempty" validate:"gte=0"`
	OrganizationName string `json:"organization_name" validate:"required,min=2,max=255"`
	BalanceCents     int64  `json:"balance_cents" validate:"gte=0"`
	IBAN             string `json:"iban" validate:"required,min=11,max=34"`
	BIC              string `json:"bic" validate:"required,min=4,max=11"`
}

// LoadSeed decodes and validates a JSON array of seed accounts.
func LoadSeed(r io.Reader) ([]domain.BankAccount, error) {
	var entries []SeedAccount
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	accounts := make([]domain.BankAccount, 0, len(entries))
	for i, e := range entries {
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("seed entry %d is invalid: %w", i, err)
		}
		accounts = append(accounts, domain.BankAccount{
			ID:               e.ID,
			OrganizationName: e.OrganizationName,
			BalanceCents:     e.BalanceCents,
			IBAN:             e.IBAN,
			BIC:              e.BIC,
		})
	}
	return accounts, nil
}

type Seeder struct {
	accounts bank_accounts_repo.BankAccountRepository
	logger   *zap.Logger
}

func NewSeeder(accounts bank_accounts_repo.BankAccountRepository, logger *zap.Logger) *Seeder {
	return &Seeder{accounts: accounts, logger: logger}
}

// Seed saves every account and returns how many were created. Accounts whose
// IBAN and BIC already exist are skipped, so seeding twice is harmless.
func (s *Seeder) Seed(ctx context.Context, accounts []domain.BankAccount) (int, error) {
	created := 0
	for i := range accounts {
		saved, err := s.accounts.Save(ctx, &accounts[i])
		if err != nil {
			var failure *domain.Failure
			if errors.As(err, &failure) && failure.Code == domain.ErrorCodeBankAccountAlreadyExists {
				s.logger.Warn("Bank account already exists, skipping",
					zap.String("iban", accounts[i].IBAN),
					zap.String("bic", accounts[i].BIC))
				continue
			}
			return created, err
		}
		s.logger.Info("Bank account seeded",
			zap.Int64("bank_account_id", saved.ID),
			zap.String("organization_name", saved.OrganizationName),
			zap.Int64("balance_cents", saved.BalanceCents))
		created++
	}
	return created, nil
}
