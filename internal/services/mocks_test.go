package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/arabadanismani/backend/internal/models"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockGenerator) Name() string {
	return "mock"
}

type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) LogDebit(requestID, userID string, balance int) {
	m.Called(requestID, userID, balance)
}

func (m *MockAuditLogger) LogRefund(requestID, userID string, balance int, reason string) {
	m.Called(requestID, userID, balance, reason)
}

func (m *MockAuditLogger) LogPurchase(purchaseToken, userID string, amount, balance int, duplicate bool) {
	m.Called(purchaseToken, userID, amount, balance, duplicate)
}

func (m *MockAuditLogger) LogError(reference, userID string, err error) {
	m.Called(reference, userID, err)
}

// failingLedger wraps a Ledger and fails every Credit.
type failingLedger struct {
	Ledger
	creditErr error
}

func (f *failingLedger) Credit(context.Context, string, int) (int, error) {
	return 0, f.creditErr
}

func purchase(token, userID string, amount int) models.PurchaseRecord {
	return models.PurchaseRecord{
		PurchaseToken: token,
		UserID:        userID,
		Amount:        amount,
		Meta: models.ProductMeta{
			Platform:    "android",
			PackageName: "com.arabadanismani.app",
			ProductID:   "credits_15",
		},
	}
}
