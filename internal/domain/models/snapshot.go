package models

import (
	"strings"
	"time"
)

type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyOnce      Frequency = "one_time"
)

// MonthlyFactor converts an amount paid at this frequency into a monthly amount.
// Unknown frequencies are treated as monthly; one-time amounts contribute nothing.
func (f Frequency) MonthlyFactor() float64 {
	switch Frequency(strings.ToLower(string(f))) {
	case FrequencyDaily:
		return 30
	case FrequencyWeekly:
		return 52.0 / 12.0
	case FrequencyBiweekly:
		return 26.0 / 12.0
	case FrequencyQuarterly:
		return 1.0 / 3.0
	case FrequencyYearly, "annual", "annually":
		return 1.0 / 12.0
	case FrequencyOnce, "once":
		return 0
	default:
		return 1
	}
}

type Asset struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Symbol        string  `json:"symbol,omitempty"`
	Quantity      float64 `json:"quantity"`
	PurchasePrice float64 `json:"purchase_price"`
	CurrentPrice  float64 `json:"current_price"`
	Currency      string  `json:"currency"`
	Country       string  `json:"country,omitempty"`
}

type Debt struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Amount         float64 `json:"amount"`
	MonthlyPayment float64 `json:"monthly_payment"`
	InterestRate   float64 `json:"interest_rate"`
	Currency       string  `json:"currency"`
}

type IncomeStream struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"`
	Frequency Frequency `json:"frequency"`
	Currency  string    `json:"currency"`
	Active    bool      `json:"active"`
}

type ExpenseStream struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Amount    float64   `json:"amount"`
	Frequency Frequency `json:"frequency"`
	Currency  string    `json:"currency"`
}

const (
	GoalActive    = "active"
	GoalCompleted = "completed"
)

type Goal struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	TargetAmount  float64        `json:"target_amount"`
	CurrentAmount float64        `json:"current_amount"`
	TargetDate    Opt[time.Time] `json:"target_date"`
	Status        string         `json:"status"`
	Currency      string         `json:"currency"`
}

type Deposit struct {
	ID           string         `json:"id"`
	Bank         string         `json:"bank"`
	Type         string         `json:"type"`
	Amount       float64        `json:"amount"`
	InterestRate float64        `json:"interest_rate"`
	MaturityDate Opt[time.Time] `json:"maturity_date"`
	Currency     string         `json:"currency"`
}

// Settings are the per-user preferences threaded through the pipeline.
type Settings struct {
	Currency string `json:"currency"`
	Language string `json:"language"`
	Country  string `json:"country"`
}

// UserSnapshot is the read-only view of one user's finances for a single request.
type UserSnapshot struct {
	UserID   string          `json:"user_id"`
	Assets   []Asset         `json:"assets"`
	Debts    []Debt          `json:"debts"`
	Income   []IncomeStream  `json:"income"`
	Expenses []ExpenseStream `json:"expenses"`
	Goals    []Goal          `json:"goals"`
	Deposits []Deposit       `json:"deposits"`
	Settings Settings        `json:"settings"`
}

// IsEmpty reports whether the user has no financial records at all.
func (s *UserSnapshot) IsEmpty() bool {
	return s == nil || len(s.Assets)+len(s.Debts)+len(s.Income)+len(s.Expenses)+len(s.Goals)+len(s.Deposits) == 0
}
