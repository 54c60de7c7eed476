package banking

import (
	"strings"

	"github.com/shopspring/decimal"
)

// accountPrefix is the identifier format the mock bank issues.
const accountPrefix = "ACC"

// TransferRequest is the payload for POST /transfer.
type TransferRequest struct {
	FromAccount string  `json:"fromAccount"`
	ToAccount   string  `json:"toAccount"`
	Amount      float64 `json:"amount"`
}

// Validate checks the transfer invariants locally so a malformed request
// never costs a round trip.
func (r TransferRequest) Validate() error {
	if err := validateAccountID("fromAccount", r.FromAccount); err != nil {
		return err
	}
	if err := validateAccountID("toAccount", r.ToAccount); err != nil {
		return err
	}
	if r.Amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	return nil
}

func validateAccountID(field, id string) error {
	if id == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	if !strings.HasPrefix(id, accountPrefix) {
		return &ValidationError{Field: field, Reason: "must start with " + accountPrefix}
	}
	return nil
}

// ParseAmount parses a money amount exactly (no float round-tripping of user
// input) and enforces positivity. The wire format stays a JSON number, so the
// value is converted to float64 only after validation.
func ParseAmount(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &ValidationError{Field: "amount", Reason: "not a number: " + s}
	}
	if !d.IsPositive() {
		return 0, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	return d.InexactFloat64(), nil
}

// TransferResult is the server's response to a transfer. Immutable once
// decoded; Status is server-defined (SUCCESS or FAILED).
type TransferResult struct {
	TransactionID string  `json:"transactionId"`
	Status        string  `json:"status"`
	Message       string  `json:"message"`
	FromAccount   string  `json:"fromAccount"`
	ToAccount     string  `json:"toAccount"`
	Amount        float64 `json:"amount"`
	Timestamp     string  `json:"timestamp,omitempty"`
}

// tokenResponse is the body of POST /authToken.
type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// Account is one entry of GET /accounts.
type Account struct {
	AccountID string  `json:"accountId"`
	Balance   float64 `json:"balance"`
	Currency  string  `json:"currency,omitempty"`
	Status    string  `json:"status,omitempty"`
}

// AccountList is the body of GET /accounts.
type AccountList struct {
	Accounts []Account `json:"accounts"`
}

// AccountValidation is the body of GET /accounts/validate/{id}.
type AccountValidation struct {
	AccountID string `json:"accountId"`
	IsValid   bool   `json:"isValid"`
	Message   string `json:"message,omitempty"`
}

// Balance is the body of GET /accounts/balance/{id}.
type Balance struct {
	AccountID string  `json:"accountId"`
	Balance   float64 `json:"balance"`
	Currency  string  `json:"currency,omitempty"`
}

// Transaction is one entry of GET /transactions/history.
type Transaction struct {
	TransactionID string  `json:"transactionId"`
	FromAccount   string  `json:"fromAccount"`
	ToAccount     string  `json:"toAccount"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	Timestamp     string  `json:"timestamp,omitempty"`
}

// TransactionHistory is the body of GET /transactions/history.
type TransactionHistory struct {
	Transactions []Transaction `json:"transactions"`
}

// apiError is the error body shape the mock bank returns on 4xx/5xx.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
