package audit

import (
	"encoding/json"
	"log"
	"time"
)

const (
	EventDebit             = "DEBIT"
	EventRefund            = "REFUND"
	EventPurchase          = "PURCHASE"
	EventPurchaseDuplicate = "PURCHASE_DUPLICATE"
	EventError             = "ERROR"
)

type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	Reference string    `json:"reference"`
	UserID    string    `json:"user_id"`
	Amount    int       `json:"amount"`
	Balance   int       `json:"balance"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

// AuditLogger writes one JSON line per ledger mutation. The reference is the
// request id for debits and refunds and the purchase token for purchases.
type AuditLogger struct {
	logger *log.Logger
	now    func() time.Time
}

func NewAuditLogger() *AuditLogger {
	return &AuditLogger{logger: log.Default(), now: time.Now}
}

// NewAuditLoggerTo writes to the given logger instead of the standard one.
func NewAuditLoggerTo(logger *log.Logger) *AuditLogger {
	return &AuditLogger{logger: logger, now: time.Now}
}

func (a *AuditLogger) LogDebit(requestID, userID string, balance int) {
	a.log(Event{
		EventType: EventDebit,
		Reference: requestID,
		UserID:    userID,
		Amount:    -1,
		Balance:   balance,
		Status:    "SUCCESS",
	})
}

func (a *AuditLogger) LogRefund(requestID, userID string, balance int, reason string) {
	a.log(Event{
		EventType: EventRefund,
		Reference: requestID,
		UserID:    userID,
		Amount:    1,
		Balance:   balance,
		Status:    "SUCCESS",
		Details:   map[string]string{"reason": reason},
	})
}

func (a *AuditLogger) LogPurchase(purchaseToken, userID string, amount, balance int, duplicate bool) {
	event := Event{
		EventType: EventPurchase,
		Reference: purchaseToken,
		UserID:    userID,
		Amount:    amount,
		Balance:   balance,
		Status:    "SUCCESS",
	}
	if duplicate {
		event.EventType = EventPurchaseDuplicate
		event.Amount = 0
		event.Status = "SKIPPED"
	}
	a.log(event)
}

func (a *AuditLogger) LogError(reference, userID string, err error) {
	a.log(Event{
		EventType: EventError,
		Reference: reference,
		UserID:    userID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *AuditLogger) log(event Event) {
	event.Timestamp = a.now().UTC()
	data, _ := json.Marshal(event)
	a.logger.Printf("AUDIT: %s", string(data))
}
