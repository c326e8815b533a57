package bank_accounts_repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jonno85/tech-task/internal/domain"
)

const (
	uniqueViolation    = "23505"
	ibanBicConstraint  = "bank_accounts_iban_bic_key"
	syncIDSequenceStmt = `SELECT setval(pg_get_serial_sequence('bank_accounts', 'id'), (SELECT MAX(id) FROM bank_accounts))`
)

var (
	failureSave = domain.NewFailure(domain.ErrorCodeDatabaseError, "Cannot save into the db")
	failureRead = domain.NewFailure(domain.ErrorCodeDatabaseError, "Cannot get values")
)

type bankAccountRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewBankAccountRepository(db *sql.DB, logger *zap.Logger) *bankAccountRepository {
	return &bankAccountRepository{db: db, logger: logger}
}

func (r *bankAccountRepository) Save(ctx context.Context, account *domain.BankAccount) (*domain.BankAccount, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Cannot begin transaction to save bank account", zap.Error(err))
		return nil, failureSave.WithCause(err)
	}

	var row *sql.Row
	if account.ID == 0 {
		row = tx.QueryRowContext(ctx, `
			INSERT INTO bank_accounts (organization_name, balance_cents, iban, bic)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, account.OrganizationName, account.BalanceCents, account.IBAN, account.BIC)
	} else {
		row = tx.QueryRowContext(ctx, `
			INSERT INTO bank_accounts (id, organization_name, balance_cents, iban, bic)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, account.ID, account.OrganizationName, account.BalanceCents, account.IBAN, account.BIC)
	}

	var id int64
	if err := row.Scan(&id); err != nil {
		r.rollback(tx)
		r.logger.Error("Cannot save bank account into db", zap.String("iban", account.IBAN), zap.String("bic", account.BIC), zap.Error(err))
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if pgErr.Constraint == ibanBicConstraint {
				return nil, domain.NewFailure(domain.ErrorCodeBankAccountAlreadyExists, "A bank account with these coordinates already exists").
					WithContext(map[string]any{"iban": account.IBAN, "bic": account.BIC}).
					WithCause(err)
			}
			return nil, failureSave.WithContext(map[string]any{"id": account.ID}).WithCause(err)
		}
		return nil, failureSave.WithCause(err)
	}

	// An explicit id bypasses the sequence, so move it past the highest id.
	if account.ID != 0 {
		if _, err := tx.ExecContext(ctx, syncIDSequenceStmt); err != nil {
			r.rollback(tx)
			r.logger.Error("Cannot advance bank account id sequence", zap.Int64("bank_account_id", id), zap.Error(err))
			return nil, failureSave.WithCause(err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Cannot commit bank account insert", zap.Error(err))
		return nil, failureSave.WithCause(err)
	}

	saved := *account
	saved.ID = id
	return &saved, nil
}

// Update overwrites the whole row keyed by account.ID. The caller supplies the new balance.
func (r *bankAccountRepository) Update(ctx context.Context, account *domain.BankAccount) (*domain.BankAccount, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Cannot begin transaction to update bank account", zap.Int64("bank_account_id", account.ID), zap.Error(err))
		return nil, failureSave.WithCause(err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE bank_accounts
		SET organization_name = $1, balance_cents = $2, iban = $3, bic = $4
		WHERE id = $5
	`, account.OrganizationName, account.BalanceCents, account.IBAN, account.BIC, account.ID)
	if err != nil {
		r.rollback(tx)
		r.logger.Error("Cannot update bank account in db", zap.Int64("bank_account_id", account.ID), zap.Error(err))
		return nil, failureSave.WithCause(err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		r.rollback(tx)
		r.logger.Error("Cannot get rows affected for bank account update", zap.Int64("bank_account_id", account.ID), zap.Error(err))
		return nil, failureSave.WithCause(err)
	}
	if rowsAffected == 0 {
		r.rollback(tx)
		r.logger.Error("No bank account row updated", zap.Int64("bank_account_id", account.ID))
		return nil, failureSave.WithContext(map[string]any{"id": account.ID})
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Cannot commit bank account update", zap.Int64("bank_account_id", account.ID), zap.Error(err))
		return nil, failureSave.WithCause(err)
	}

	updated := *account
	return &updated, nil
}

func (r *bankAccountRepository) GetAll(ctx context.Context) ([]domain.BankAccount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, organization_name, balance_cents, iban, bic
		FROM bank_accounts
		ORDER BY id ASC
	`)
	if err != nil {
		r.logger.Error("Cannot get bank accounts", zap.Error(err))
		return nil, failureRead.WithCause(err)
	}
	defer rows.Close()

	accounts := make([]domain.BankAccount, 0)
	for rows.Next() {
		var account domain.BankAccount
		if err := rows.Scan(&account.ID, &account.OrganizationName, &account.BalanceCents, &account.IBAN, &account.BIC); err != nil {
			r.logger.Error("Cannot scan bank account", zap.Error(err))
			return nil, failureRead.WithCause(err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating bank accounts", zap.Error(err))
		return nil, failureRead.WithCause(err)
	}

	return accounts, nil
}

func (r *bankAccountRepository) GetByIbanAndBic(ctx context.Context, iban, bic string) (*domain.BankAccount, error) {
	account := &domain.BankAccount{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, organization_name, balance_cents, iban, bic
		FROM bank_accounts
		WHERE iban = $1 AND bic = $2
		ORDER BY id ASC
		LIMIT 1
	`, iban, bic).Scan(&account.ID, &account.OrganizationName, &account.BalanceCents, &account.IBAN, &account.BIC)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewFailure(domain.ErrorCodeBankAccountNotFound, "There is no bank account that matches this iban and bic").
				WithContext(map[string]any{"iban": iban, "bic": bic})
		}
		r.logger.Error("Cannot get bank account by iban and bic", zap.String("iban", iban), zap.String("bic", bic), zap.Error(err))
		return nil, failureRead.WithCause(err)
	}
	return account, nil
}

func (r *bankAccountRepository) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		r.logger.Error("Cannot rollback bank account transaction", zap.Error(err))
	}
}
