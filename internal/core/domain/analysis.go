package domain

type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Insight is a rule-engine recommendation tied to a KPI threshold breach.
type Insight struct {
	RuleID         string   `json:"rule_id"`
	Severity       Severity `json:"severity"`
	Title          string   `json:"title"`
	Message        string   `json:"message"`
	ActionableStep string   `json:"actionable_step"`
}

type Ratios struct {
	GrossMarginPct float64 `json:"gross_margin_pct"`
	NetMarginPct   float64 `json:"net_margin_pct"`
}

type KPIs struct {
	Period      string  `json:"period"`
	TotalSales  float64 `json:"total_sales"`
	CostOfSales float64 `json:"cost_of_sales"`
	FixedCosts  float64 `json:"fixed_costs"`
	NetIncome   float64 `json:"net_income"`
	Ratios      Ratios  `json:"ratios"`
}

// AnalysisResult is created fresh per analyzer invocation and never mutated
// after construction.
type AnalysisResult struct {
	KPIs         KPIs      `json:"kpis"`
	Improvements []Insight `json:"improvements"`
}
