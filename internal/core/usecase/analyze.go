package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/finsight-cl/finsight/internal/core/domain"
)

// categoryBucket classifies line items into KPI aggregates by ordered,
// case-insensitive substring rules. The first matching bucket wins; items
// matching none are ignored for KPI purposes.
type categoryBucket struct {
	keys []string
	add  func(k *domain.KPIs, amount float64)
}

var categoryBuckets = []categoryBucket{
	{
		keys: []string{"ingreso", "venta", "revenue", "sale"},
		add:  func(k *domain.KPIs, amount float64) { k.TotalSales += amount },
	},
	{
		keys: []string{"costo", "cost"},
		add:  func(k *domain.KPIs, amount float64) { k.CostOfSales += math.Abs(amount) },
	},
	{
		keys: []string{"gasto", "admin", "expense"},
		add:  func(k *domain.KPIs, amount float64) { k.FixedCosts += math.Abs(amount) },
	},
}

// insightRule is one entry of the fixed rule list. Rules are independent,
// evaluated in declaration order, and every applicable rule fires.
type insightRule struct {
	id       string
	severity domain.Severity
	applies  func(k domain.KPIs) bool
	build    func(k domain.KPIs) domain.Insight
}

var insightRules = []insightRule{
	{
		id:       "HIGH_FIXED_COSTS",
		severity: domain.SeverityHigh,
		applies: func(k domain.KPIs) bool {
			return k.TotalSales > 0 && k.FixedCosts/k.TotalSales > 0.5
		},
		build: func(k domain.KPIs) domain.Insight {
			return domain.Insight{
				RuleID:         "HIGH_FIXED_COSTS",
				Severity:       domain.SeverityHigh,
				Title:          "Gastos Fijos Elevados",
				Message:        fmt.Sprintf("Tus gastos fijos (%v) representan más del 50%% de tus ventas.", k.FixedCosts),
				ActionableStep: "Audita tus suscripciones y re-negocia el arriendo.",
			}
		},
	},
	{
		id:       "LOW_GROSS_MARGIN",
		severity: domain.SeverityMedium,
		applies: func(k domain.KPIs) bool {
			return k.Ratios.GrossMarginPct < 30
		},
		build: func(k domain.KPIs) domain.Insight {
			return domain.Insight{
				RuleID:         "LOW_GROSS_MARGIN",
				Severity:       domain.SeverityMedium,
				Title:          "Margen Bruto Bajo",
				Message:        fmt.Sprintf("Tu margen bruto es del %v%%.", k.Ratios.GrossMarginPct),
				ActionableStep: "Revisa tus costos de venta o precios.",
			}
		},
	},
}

// Analyzer computes KPIs and improvement insights from a normalized
// document. It is pure and deterministic given its input.
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Analyze(doc *domain.NormalizedDocument) *domain.AnalysisResult {
	kpis := computeKPIs(doc)
	return &domain.AnalysisResult{
		KPIs:         kpis,
		Improvements: evaluateRules(kpis),
	}
}

func computeKPIs(doc *domain.NormalizedDocument) domain.KPIs {
	kpis := domain.KPIs{Period: doc.FinancialPeriod}
	if kpis.Period == "" {
		kpis.Period = "Unknown"
	}

	for _, item := range doc.Items {
		category := strings.ToLower(item.Category)
		for _, bucket := range categoryBuckets {
			if containsAnyKey(category, bucket.keys) {
				bucket.add(&kpis, item.Amount)
				break
			}
		}
	}

	kpis.NetIncome = kpis.TotalSales - kpis.CostOfSales - kpis.FixedCosts
	if kpis.TotalSales > 0 {
		kpis.Ratios.GrossMarginPct = round2((kpis.TotalSales - kpis.CostOfSales) / kpis.TotalSales * 100)
		kpis.Ratios.NetMarginPct = round2(kpis.NetIncome / kpis.TotalSales * 100)
	}
	return kpis
}

func evaluateRules(kpis domain.KPIs) []domain.Insight {
	insights := make([]domain.Insight, 0, len(insightRules))
	for _, rule := range insightRules {
		if rule.applies(kpis) {
			insights = append(insights, rule.build(kpis))
		}
	}
	return insights
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func containsAnyKey(s string, keys []string) bool {
	for _, key := range keys {
		if strings.Contains(s, key) {
			return true
		}
	}
	return false
}
