package services

import (
	"context"
	"log"

	"github.com/arabadanismani/backend/internal/metrics"
	"github.com/arabadanismani/backend/internal/models"
)

// AddCreditsRequest is the body of POST /api/cars/add-credits.
type AddCreditsRequest struct {
	Platform      string `json:"platform" validate:"required,max=32"`
	PackageName   string `json:"packageName" validate:"required,max=255"`
	ProductID     string `json:"productId" validate:"required,max=128"`
	PurchaseToken string `json:"purchaseToken" validate:"required,max=4096"`
}

// PurchaseService turns verified store receipts into ledger credits.
type PurchaseService struct {
	ledger  Ledger
	catalog *Catalog
	audit   AuditRecorder
	metrics *metrics.Metrics
}

func NewPurchaseService(ledger Ledger, catalog *Catalog, audit AuditRecorder, m *metrics.Metrics) *PurchaseService {
	if audit == nil {
		audit = nopAudit{}
	}
	return &PurchaseService{
		ledger:  ledger,
		catalog: catalog,
		audit:   audit,
		metrics: m,
	}
}

// AddCredits credits the product's amount to userID unless the purchase
// token was already applied. The product is resolved before the ledger is
// touched, so an unknown product never opens a transaction.
func (s *PurchaseService) AddCredits(ctx context.Context, userID string, req AddCreditsRequest) (models.PurchaseResult, error) {
	if s.ledger == nil {
		return models.PurchaseResult{}, ErrLedgerNotInitialized
	}

	amount, ok := s.catalog.Lookup(req.ProductID)
	if !ok {
		s.metrics.Purchase("unknown_product")
		log.Printf("[PURCHASE] Unknown product %q for user %s", req.ProductID, userID)
		return models.PurchaseResult{}, ErrUnknownProduct
	}

	result, err := s.ledger.ApplyPurchase(ctx, models.PurchaseRecord{
		PurchaseToken: req.PurchaseToken,
		UserID:        userID,
		Amount:        amount,
		Meta: models.ProductMeta{
			Platform:    req.Platform,
			PackageName: req.PackageName,
			ProductID:   req.ProductID,
		},
	})
	if err != nil {
		s.metrics.Purchase("error")
		s.audit.LogError(req.PurchaseToken, userID, err)
		log.Printf("[PURCHASE] Failed to apply purchase for user %s: %v", userID, err)
		return models.PurchaseResult{}, err
	}

	if result.AlreadyProcessed {
		s.metrics.Purchase("duplicate")
		log.Printf("[PURCHASE] Token already processed for user %s, balance %d", userID, result.Total)
	} else {
		s.metrics.Purchase("credited")
		log.Printf("[PURCHASE] Credited %d to user %s, balance %d", amount, userID, result.Total)
	}
	s.audit.LogPurchase(req.PurchaseToken, userID, amount, result.Total, result.AlreadyProcessed)

	return result, nil
}
