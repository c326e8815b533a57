package transfers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jonno85/tech-task/internal/domain"
	"github.com/jonno85/tech-task/internal/lock"
	"github.com/jonno85/tech-task/internal/repository/bank_accounts_repo"
	"github.com/jonno85/tech-task/internal/repository/transactions_repo"
)

var (
	failureBankAccountNotExist = domain.NewFailure(domain.ErrorCodeBankAccountNotExist, "no bank account with these coordinates")
	failureInsufficientFund    = domain.NewFailure(domain.ErrorCodeInsufficientFund, "not enough fund to emi bulk transaction")
	failureInvalidAmount       = domain.NewFailure(domain.ErrorCodeInvalidAmount, "credit transfer amounts must be positive with at most two decimals")
	failureHoldFunds           = domain.NewFailure(domain.ErrorCodeHoldFundsBankAccount, "Impossible to hold funds for bank account")
	failureRecoverHoldFunds    = domain.NewFailure(domain.ErrorCodeRecoverHoldFundsBankAccount, "Impossible to recover hold funds to bank account")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go TransferService
type TransferService interface {
	// BulkTransactions debits the organization account for every credit transfer and
	// records one transaction per line item. On success the request is echoed back.
	BulkTransactions(ctx context.Context, request domain.BulkTransfer) (*domain.BulkTransfer, error)
}

type transferService struct {
	accountRepo     bank_accounts_repo.BankAccountRepository
	transactionRepo transactions_repo.TransactionRepository
	locker          lock.Locker
	logger          *zap.Logger
}

func NewTransferService(
	accountRepo bank_accounts_repo.BankAccountRepository,
	transactionRepo transactions_repo.TransactionRepository,
	locker lock.Locker,
	logger *zap.Logger,
) TransferService {
	if locker == nil {
		locker = lock.NoopLocker{}
	}
	return &transferService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		locker:          locker,
		logger:          logger,
	}
}

// AccountLockKey identifies the lock guarding the account with the given coordinates.
func AccountLockKey(iban, bic string) string {
	return "bank_account:" + iban + ":" + bic
}

func (s *transferService) BulkTransactions(ctx context.Context, request domain.BulkTransfer) (*domain.BulkTransfer, error) {
	totalCents, err := request.TotalAmountCents()
	if err != nil {
		s.logger.Warn("Rejecting bulk transfer with invalid amount",
			zap.String("iban", request.OrganizationIBAN),
			zap.String("bic", request.OrganizationBIC),
			zap.Error(err))
		return nil, failureInvalidAmount.WithCause(err)
	}

	err = s.locker.WithLock(ctx, AccountLockKey(request.OrganizationIBAN, request.OrganizationBIC), func(ctx context.Context) error {
		return s.transfer(ctx, request, totalCents)
	})
	if errors.Is(err, lock.ErrLockUnavailable) {
		s.logger.Error("Cannot lock bank account for bulk transfer",
			zap.String("iban", request.OrganizationIBAN),
			zap.String("bic", request.OrganizationBIC),
			zap.Error(err))
		return nil, failureHoldFunds.WithCause(err)
	}
	if err != nil {
		return nil, err
	}

	echo := request
	return &echo, nil
}

func (s *transferService) transfer(ctx context.Context, request domain.BulkTransfer, totalCents int64) error {
	account, err := s.accountRepo.GetByIbanAndBic(ctx, request.OrganizationIBAN, request.OrganizationBIC)
	if err != nil {
		failure, _ := domain.AsFailure(err)
		if failure.Code == domain.ErrorCodeBankAccountNotFound {
			return failureBankAccountNotExist.WithCause(err)
		}
		return failure
	}

	if account.BalanceCents < totalCents {
		s.logger.Info("Insufficient funds for bulk transfer",
			zap.Int64("bank_account_id", account.ID),
			zap.Int64("balance_cents", account.BalanceCents),
			zap.Int64("total_amount_cents", totalCents))
		return failureInsufficientFund
	}

	transactions, err := request.Transactions(account.ID)
	if err != nil {
		return failureInvalidAmount.WithCause(err)
	}

	originalBalanceCents := account.BalanceCents
	held := *account
	held.BalanceCents = originalBalanceCents - totalCents
	if _, err := s.accountRepo.Update(ctx, &held); err != nil {
		s.logger.Error("Cannot hold funds for bulk transfer",
			zap.Int64("bank_account_id", account.ID),
			zap.Int64("held_amount_cents", totalCents),
			zap.Error(err))
		return failureHoldFunds.WithCause(err)
	}

	if _, err := s.transactionRepo.SaveAll(ctx, transactions); err != nil {
		saveFailure, _ := domain.AsFailure(err)
		return s.releaseHold(ctx, *account, totalCents, saveFailure)
	}

	s.logger.Info("Bulk transfer executed",
		zap.Int64("bank_account_id", account.ID),
		zap.Int("transactions", len(transactions)),
		zap.Int64("total_amount_cents", totalCents))
	return nil
}

// releaseHold restores the pre-debit balance. It runs detached from ctx
// cancellation so an aborted request cannot leave the funds held.
func (s *transferService) releaseHold(ctx context.Context, original domain.BankAccount, heldCents int64, saveFailure *domain.Failure) error {
	if _, err := s.accountRepo.Update(context.WithoutCancel(ctx), &original); err != nil {
		s.logger.Error("Impossible to restore held funds after failing transactions, manual intervention required",
			zap.String("bic", original.BIC),
			zap.String("iban", original.IBAN),
			zap.Int64("original_balance_cents", original.BalanceCents),
			zap.Int64("held_amount_cents", heldCents),
			zap.Int64("bank_account_id", original.ID),
			zap.NamedError("save_error", saveFailure),
			zap.Error(err))
		return failureRecoverHoldFunds.WithCause(errors.Join(saveFailure, err))
	}

	s.logger.Warn("Released held funds after failing transactions",
		zap.Int64("bank_account_id", original.ID),
		zap.Int64("held_amount_cents", heldCents),
		zap.Error(saveFailure))
	return domain.NewFailure(saveFailure.Code, saveFailure.Reason).WithCause(saveFailure.Cause)
}
