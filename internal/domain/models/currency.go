package models

import "time"

// PivotCurrency bridges pairs that lack a direct rate.
const PivotCurrency = "USD"

// CurrencyRate is a directed edge Base -> Target: 1 Base = Rate Target.
type CurrencyRate struct {
	Base       string    `json:"base" validate:"required,len=3,alpha"`
	Target     string    `json:"target" validate:"required,len=3,alpha"`
	Rate       float64   `json:"rate" validate:"gt=0"`
	ObservedAt time.Time `json:"observed_at"`
}

// ConversionPath names the resolution step that produced a rate.
type ConversionPath string

const (
	PathIdentity ConversionPath = "identity"
	PathDirect   ConversionPath = "direct"
	PathPivot    ConversionPath = "pivot"
	PathReverse  ConversionPath = "reverse"
	PathInverse  ConversionPath = "inverse"
	PathAssumed  ConversionPath = "assumed_parity"
)

// Conversion is a resolved exchange between two currencies. Verified is false
// only when no path exists and parity was assumed.
type Conversion struct {
	From     string         `json:"from"`
	To       string         `json:"to"`
	Amount   float64        `json:"amount"`
	Result   float64        `json:"result"`
	Rate     float64        `json:"rate"`
	Path     ConversionPath `json:"path"`
	Verified bool           `json:"verified"`
}
