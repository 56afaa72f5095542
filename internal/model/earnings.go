package model

import "time"

// Page is one page of a remote list; HasMore comes from the server.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Page    int  `json:"page"`
	HasMore bool `json:"hasMore"`
}

type EarningsStats struct {
	TotalEarnings     float64 `json:"totalEarnings"`
	AvailableBalance  float64 `json:"availableBalance"`
	PendingBalance    float64 `json:"pendingBalance"`
	TotalWithdrawn    float64 `json:"totalWithdrawn"`
	ThisMonthEarnings float64 `json:"thisMonthEarnings"`
	Currency          string  `json:"currency,omitempty"`
}

type Transaction struct {
	ID          string    `json:"_id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	Reference   string    `json:"reference,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Withdrawal struct {
	ID          string     `json:"_id"`
	Amount      float64    `json:"amount"`
	Status      string     `json:"status"`
	BankName    string     `json:"bankName,omitempty"`
	AccountName string     `json:"accountName,omitempty"`
	Reference   string     `json:"reference,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type ResolvedAccount struct {
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	BankCode      string `json:"bankCode"`
}

type BankDetails struct {
	BankName      string `json:"bankName" binding:"required"`
	BankCode      string `json:"bankCode" binding:"required"`
	AccountNumber string `json:"accountNumber" binding:"required,numeric,len=10"`
	AccountName   string `json:"accountName" binding:"required"`
}

type WithdrawalRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}
