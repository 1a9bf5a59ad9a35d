package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"busticket/internal/domain"
	"busticket/internal/repository"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 200
)

// WalletService handles wallet balances and transfers.
type WalletService struct {
	transactor          repository.Transactor
	walletRepo          repository.WalletRepository
	userRepo            repository.UserRepository
	notificationService *NotificationService
}

// NewWalletService creates a new WalletService.
func NewWalletService(
	transactor repository.Transactor,
	walletRepo repository.WalletRepository,
	userRepo repository.UserRepository,
	notificationService *NotificationService,
) *WalletService {
	return &WalletService{
		transactor:          transactor,
		walletRepo:          walletRepo,
		userRepo:            userRepo,
		notificationService: notificationService,
	}
}

// GetOrCreate returns the user's wallet, creating an empty one on first access.
func (s *WalletService) GetOrCreate(ctx context.Context, userID string) (*domain.Wallet, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	wallet = &domain.Wallet{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		// A concurrent first access created it.
		if errors.Is(err, repository.ErrConflict) {
			return s.walletRepo.GetByUserID(ctx, userID)
		}
		return nil, err
	}
	return wallet, nil
}

// Balance returns the user's wallet balance.
func (s *WalletService) Balance(ctx context.Context, userID string) (int64, error) {
	wallet, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// Deposit adds a positive amount to the user's wallet.
func (s *WalletService) Deposit(ctx context.Context, userID string, amount int64) (*domain.Wallet, error) {
	return s.move(ctx, userID, amount, domain.WalletTxDeposit, (*domain.Wallet).Deposit)
}

// Withdraw removes a positive amount no larger than the balance.
// On failure the balance is unchanged.
func (s *WalletService) Withdraw(ctx context.Context, userID string, amount int64) (*domain.Wallet, error) {
	return s.move(ctx, userID, amount, domain.WalletTxWithdraw, (*domain.Wallet).Withdraw)
}

func (s *WalletService) move(
	ctx context.Context,
	userID string,
	amount int64,
	txType domain.WalletTransactionType,
	apply func(*domain.Wallet, int64) error,
) (*domain.Wallet, error) {
	if amount <= 0 {
		return nil, domain.ErrNonPositiveAmount
	}
	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	var (
		wallet *domain.Wallet
		entry  *domain.WalletTransaction
	)
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		wallet, err = repos.Wallets.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := apply(wallet, amount); err != nil {
			return err
		}
		entry, err = s.record(ctx, repos, wallet, txType, amount, "")
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notificationService.NotifyWalletMovement(ctx, userID, entry)
	return wallet, nil
}

// record stores the new balance and appends its ledger entry.
func (s *WalletService) record(
	ctx context.Context,
	repos repository.Repos,
	wallet *domain.Wallet,
	txType domain.WalletTransactionType,
	amount int64,
	reference string,
) (*domain.WalletTransaction, error) {
	if err := repos.Wallets.UpdateBalance(ctx, wallet.ID, wallet.Balance); err != nil {
		return nil, err
	}
	wallet.UpdatedAt = time.Now()

	entry := &domain.WalletTransaction{
		ID:           uuid.New().String(),
		WalletID:     wallet.ID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: wallet.Balance,
		Reference:    reference,
		CreatedAt:    wallet.UpdatedAt,
	}
	if err := repos.Wallets.AddTransaction(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// TransferRequest moves money between two users' wallets.
type TransferRequest struct {
	ToUsername string `validate:"required"`
	Amount     int64  `validate:"gt=0"`
}

// TransferResult holds both wallets after a transfer.
type TransferResult struct {
	Reference string
	From      *domain.Wallet
	To        *domain.Wallet
}

// Transfer debits the caller and credits the recipient atomically. Both
// wallet rows are locked in user ID order so opposite transfers cannot deadlock.
func (s *WalletService) Transfer(ctx context.Context, userID string, req TransferRequest) (*TransferResult, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if req.Amount <= 0 {
		return nil, domain.ErrNonPositiveAmount
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	recipient, err := s.userRepo.GetByUsername(ctx, req.ToUsername)
	if err != nil {
		return nil, err
	}
	if recipient.ID == userID {
		return nil, ErrSelfTransfer
	}

	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.GetOrCreate(ctx, recipient.ID); err != nil {
		return nil, err
	}

	result := &TransferResult{Reference: "TRF-" + uuid.New().String()}
	var outEntry, inEntry *domain.WalletTransaction

	err = s.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		first, second := userID, recipient.ID
		if second < first {
			first, second = second, first
		}
		locked := make(map[string]*domain.Wallet, 2)
		for _, id := range []string{first, second} {
			w, err := repos.Wallets.GetByUserIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			locked[id] = w
		}
		result.From, result.To = locked[userID], locked[recipient.ID]

		if err := result.From.Withdraw(req.Amount); err != nil {
			return err
		}
		if err := result.To.Deposit(req.Amount); err != nil {
			return err
		}

		var err error
		if outEntry, err = s.record(ctx, repos, result.From, domain.WalletTxTransferOut, req.Amount, result.Reference); err != nil {
			return err
		}
		inEntry, err = s.record(ctx, repos, result.To, domain.WalletTxTransferIn, req.Amount, result.Reference)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notificationService.NotifyWalletMovement(ctx, userID, outEntry)
	s.notificationService.NotifyWalletMovement(ctx, recipient.ID, inEntry)
	return result, nil
}

// Transactions lists the latest ledger entries of the user's wallet.
func (s *WalletService) Transactions(ctx context.Context, userID string, limit int) ([]*domain.WalletTransaction, error) {
	if limit <= 0 {
		limit = defaultTransactionLimit
	}
	if limit > maxTransactionLimit {
		limit = maxTransactionLimit
	}

	wallet, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.walletRepo.ListTransactions(ctx, wallet.ID, limit)
}
