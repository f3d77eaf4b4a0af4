package services

import (
	"context"
	"sync"
	"time"

	"github.com/arabadanismani/backend/internal/models"
)

// MemoryLedger is an in-process Ledger with the same atomicity contract as
// PostgresLedger: one mutex per account, plus one mutex serializing
// purchases. Balances are lost on restart; use it for tests and local runs.
type MemoryLedger struct {
	mu        sync.Mutex
	accounts  map[string]*memoryAccount
	purchases map[string]models.PurchaseRecord

	purchaseMu   sync.Mutex
	initialGrant int
	now          func() time.Time
}

type memoryAccount struct {
	mu      sync.Mutex
	account models.UserAccount
}

func NewMemoryLedger(initialGrant int) *MemoryLedger {
	if initialGrant < 0 {
		initialGrant = DefaultInitialGrant
	}
	return &MemoryLedger{
		accounts:     make(map[string]*memoryAccount),
		purchases:    make(map[string]models.PurchaseRecord),
		initialGrant: initialGrant,
		now:          time.Now,
	}
}

// entry returns the account, creating it with the initial grant on first use.
func (m *MemoryLedger) entry(userID string) *memoryAccount {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct, ok := m.accounts[userID]
	if !ok {
		now := m.now()
		acct = &memoryAccount{account: models.UserAccount{
			UserID:    userID,
			Credits:   m.initialGrant,
			CreatedAt: now,
			UpdatedAt: now,
		}}
		m.accounts[userID] = acct
	}
	return acct
}

func (m *MemoryLedger) Ensure(_ context.Context, userID string) (int, error) {
	acct := m.entry(userID)
	acct.mu.Lock()
	defer acct.mu.Unlock()
	return acct.account.Credits, nil
}

func (m *MemoryLedger) Debit(_ context.Context, userID string) (int, error) {
	acct := m.entry(userID)
	acct.mu.Lock()
	defer acct.mu.Unlock()

	if acct.account.Credits <= 0 {
		return 0, ErrQuotaExhausted
	}
	acct.account.Credits--
	acct.account.UpdatedAt = m.now()
	return acct.account.Credits, nil
}

func (m *MemoryLedger) Credit(_ context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return m.credit(userID, amount), nil
}

func (m *MemoryLedger) credit(userID string, amount int) int {
	acct := m.entry(userID)
	acct.mu.Lock()
	defer acct.mu.Unlock()

	acct.account.Credits = max(acct.account.Credits, 0) + amount
	acct.account.UpdatedAt = m.now()
	return acct.account.Credits
}

func (m *MemoryLedger) ApplyPurchase(_ context.Context, rec models.PurchaseRecord) (models.PurchaseResult, error) {
	if rec.PurchaseToken == "" || rec.UserID == "" {
		return models.PurchaseResult{}, ErrInvalidPurchase
	}
	if rec.Amount <= 0 {
		return models.PurchaseResult{}, ErrInvalidAmount
	}

	m.purchaseMu.Lock()
	defer m.purchaseMu.Unlock()

	m.mu.Lock()
	_, seen := m.purchases[rec.PurchaseToken]
	m.mu.Unlock()

	if seen {
		total, ok := m.Balance(rec.UserID)
		if !ok {
			total = m.initialGrant
		}
		return models.PurchaseResult{AlreadyProcessed: true, Total: total}, nil
	}

	total := m.credit(rec.UserID, rec.Amount)

	rec.CreatedAt = m.now()
	m.mu.Lock()
	m.purchases[rec.PurchaseToken] = rec
	m.mu.Unlock()

	return models.PurchaseResult{AlreadyProcessed: false, Total: total}, nil
}

// Balance reports the balance without creating the account.
func (m *MemoryLedger) Balance(userID string) (int, bool) {
	m.mu.Lock()
	acct, ok := m.accounts[userID]
	m.mu.Unlock()
	if !ok {
		return 0, false
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()
	return acct.account.Credits, true
}

// Purchase returns the recorded purchase for token.
func (m *MemoryLedger) Purchase(token string) (models.PurchaseRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.purchases[token]
	return rec, ok
}
