package domain

// LineItem is one dated, categorized amount in the canonical schema.
type LineItem struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
}

// NormalizedDocument is the canonical representation every source converges
// to. Items may be empty, but a successfully parsed document is never nil.
type NormalizedDocument struct {
	FinancialPeriod string     `json:"financial_period"`
	Currency        string     `json:"currency"`
	Items           []LineItem `json:"items"`
}
