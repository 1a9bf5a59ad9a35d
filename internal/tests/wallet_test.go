package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"busticket/internal/domain"
	"busticket/internal/repository"
	"busticket/internal/service"
)

func TestWallet_DepositAndWithdraw(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.addUser(t, "alice", domain.UserRoleUser)
	ctx := context.Background()

	wallet, err := env.wallets.GetOrCreate(ctx, alice.UserID)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if wallet.Balance != 0 {
		t.Errorf("expected empty wallet, got %d", wallet.Balance)
	}

	again, err := env.wallets.GetOrCreate(ctx, alice.UserID)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if again.ID != wallet.ID {
		t.Error("expected one wallet per user")
	}

	if _, err := env.wallets.Deposit(ctx, alice.UserID, 1000); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	testCases := []struct {
		name        string
		amount      int64
		wantErr     error
		wantBalance int64
	}{
		{name: "zero", amount: 0, wantErr: domain.ErrNonPositiveAmount, wantBalance: 1000},
		{name: "negative", amount: -5, wantErr: domain.ErrNonPositiveAmount, wantBalance: 1000},
		{name: "more than balance", amount: 1001, wantErr: domain.ErrInsufficientBalance, wantBalance: 1000},
		{name: "part of balance", amount: 400, wantBalance: 600},
		{name: "rest of balance", amount: 600, wantBalance: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.wallets.Withdraw(ctx, alice.UserID, tc.amount)
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got: %v", tc.wantErr, err)
			}
			if tc.wantErr == nil && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}

			balance, err := env.wallets.Balance(ctx, alice.UserID)
			if err != nil {
				t.Fatalf("balance: %v", err)
			}
			if balance != tc.wantBalance {
				t.Errorf("expected balance %d, got %d", tc.wantBalance, balance)
			}
		})
	}

	if _, err := env.wallets.Deposit(ctx, alice.UserID, -1); !errors.Is(err, domain.ErrNonPositiveAmount) {
		t.Errorf("expected ErrNonPositiveAmount, got: %v", err)
	}
	if _, err := env.wallets.Deposit(ctx, "", 10); !errors.Is(err, service.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got: %v", err)
	}
}

func TestWallet_ConcurrentWithdrawals_NeverNegative(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.addUser(t, "alice", domain.UserRoleUser)
	ctx := context.Background()

	if _, err := env.wallets.Deposit(ctx, alice.UserID, 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	const attempts = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.wallets.Withdraw(ctx, alice.UserID, 10)
			if err != nil && !errors.Is(err, domain.ErrInsufficientBalance) {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 10 {
		t.Errorf("expected 10 successful withdrawals, got %d", successes)
	}
	balance, err := env.wallets.Balance(ctx, alice.UserID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Errorf("expected balance 0, got %d", balance)
	}
}

func TestWallet_Transfer(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.addUser(t, "alice", domain.UserRoleUser)
	bob := env.addUser(t, "bob", domain.UserRoleUser)
	ctx := context.Background()

	if _, err := env.wallets.Deposit(ctx, alice.UserID, 500); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	result, err := env.wallets.Transfer(ctx, alice.UserID, service.TransferRequest{ToUsername: "bob", Amount: 300})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if result.From.Balance != 200 || result.To.Balance != 300 {
		t.Errorf("expected balances 200 and 300, got %d and %d", result.From.Balance, result.To.Balance)
	}

	bobEntries, err := env.wallets.Transactions(ctx, bob.UserID, 10)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(bobEntries) != 1 || bobEntries[0].Type != domain.WalletTxTransferIn || bobEntries[0].Reference != result.Reference {
		t.Errorf("unexpected recipient ledger %+v", bobEntries)
	}

	testCases := []struct {
		name    string
		req     service.TransferRequest
		wantErr error
	}{
		{name: "insufficient balance", req: service.TransferRequest{ToUsername: "bob", Amount: 201}, wantErr: domain.ErrInsufficientBalance},
		{name: "self transfer", req: service.TransferRequest{ToUsername: "alice", Amount: 10}, wantErr: service.ErrSelfTransfer},
		{name: "unknown recipient", req: service.TransferRequest{ToUsername: "nobody", Amount: 10}, wantErr: repository.ErrNotFound},
		{name: "zero amount", req: service.TransferRequest{ToUsername: "bob", Amount: 0}, wantErr: domain.ErrNonPositiveAmount},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.wallets.Transfer(ctx, alice.UserID, tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got: %v", tc.wantErr, err)
			}
		})
	}

	// Failed transfers leave both balances untouched.
	if balance, _ := env.wallets.Balance(ctx, alice.UserID); balance != 200 {
		t.Errorf("expected sender balance 200, got %d", balance)
	}
	if balance, _ := env.wallets.Balance(ctx, bob.UserID); balance != 300 {
		t.Errorf("expected recipient balance 300, got %d", balance)
	}
}

func TestWallet_OppositeConcurrentTransfers_ConserveMoney(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.addUser(t, "alice", domain.UserRoleUser)
	bob := env.addUser(t, "bob", domain.UserRoleUser)
	ctx := context.Background()

	for _, id := range []string{alice.UserID, bob.UserID} {
		if _, err := env.wallets.Deposit(ctx, id, 1000); err != nil {
			t.Fatalf("deposit: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = env.wallets.Transfer(ctx, alice.UserID, service.TransferRequest{ToUsername: "bob", Amount: 70})
		}()
		go func() {
			defer wg.Done()
			_, _ = env.wallets.Transfer(ctx, bob.UserID, service.TransferRequest{ToUsername: "alice", Amount: 50})
		}()
	}
	wg.Wait()

	a, _ := env.wallets.Balance(ctx, alice.UserID)
	b, _ := env.wallets.Balance(ctx, bob.UserID)
	if a < 0 || b < 0 {
		t.Errorf("expected non-negative balances, got %d and %d", a, b)
	}
	if a+b != 2000 {
		t.Errorf("expected total 2000, got %d", a+b)
	}
}

func TestWallet_TransactionsLimit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.addUser(t, "alice", domain.UserRoleUser)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if _, err := env.wallets.Deposit(ctx, alice.UserID, int64(i*100)); err != nil {
			t.Fatalf("deposit: %v", err)
		}
	}

	entries, err := env.wallets.Transactions(ctx, alice.UserID, 2)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Amount != 500 || entries[0].BalanceAfter != 1500 {
		t.Errorf("expected latest deposit first, got %+v", entries[0])
	}
}
