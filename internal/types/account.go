package types

import "github.com/shopspring/decimal"

// AccountType selects the broker balance used for trading.
type AccountType string

const (
	AccountTypePractice AccountType = "PRACTICE"
	AccountTypeReal     AccountType = "REAL"
)

// BrokerCredentials is the body of the broker connect call.
type BrokerCredentials struct {
	// Username is the broker login
	Username string `json:"username" validate:"required"`
	// Password is the broker password
	Password string `json:"password" validate:"required"`
	// AccountType selects the practice or real balance
	AccountType AccountType `json:"account_type" validate:"omitempty,oneof=PRACTICE REAL"`
}

// BrokerStatus is the broker link status reported by the service.
type BrokerStatus struct {
	Connected bool `json:"connected"`
}

// Balance is the broker account balance.
type Balance struct {
	Balance decimal.Decimal `json:"balance"`
}
