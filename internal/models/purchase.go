package models

import "time"

// ProductMeta identifies the store product a purchase was made for.
type ProductMeta struct {
	Platform    string `json:"platform" db:"platform"`
	PackageName string `json:"packageName" db:"package_name"`
	ProductID   string `json:"productId" db:"product_id"`
}

// PurchaseRecord is written exactly once per purchase token and never
// updated afterwards.
type PurchaseRecord struct {
	PurchaseToken string      `json:"purchaseToken" db:"purchase_token"`
	UserID        string      `json:"userId" db:"user_id"`
	Amount        int         `json:"amount" db:"amount"`
	Meta          ProductMeta `json:"meta"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
}

// PurchaseResult is the outcome of applying a purchase to the ledger.
type PurchaseResult struct {
	AlreadyProcessed bool `json:"alreadyProcessed"`
	Total            int  `json:"total"`
}
