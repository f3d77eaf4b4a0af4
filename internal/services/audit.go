package services

// AuditRecorder receives one call per ledger mutation.
// *audit.AuditLogger implements it.
type AuditRecorder interface {
	LogDebit(requestID, userID string, balance int)
	LogRefund(requestID, userID string, balance int, reason string)
	LogPurchase(purchaseToken, userID string, amount, balance int, duplicate bool)
	LogError(reference, userID string, err error)
}

type nopAudit struct{}

func (nopAudit) LogDebit(string, string, int)               {}
func (nopAudit) LogRefund(string, string, int, string)      {}
func (nopAudit) LogPurchase(string, string, int, int, bool) {}
func (nopAudit) LogError(string, string, error)             {}
