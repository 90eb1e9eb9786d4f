package usecase

import (
	"reflect"
	"testing"

	"github.com/finsight-cl/finsight/internal/core/domain"
)

func TestAnalyzeKPIArithmetic(t *testing.T) {
	doc := &domain.NormalizedDocument{
		FinancialPeriod: "2024",
		Currency:        "CLP",
		Items: []domain.LineItem{
			{Category: "venta", Amount: 1000},
			{Category: "costo", Amount: -400},
			{Category: "gasto admin", Amount: -700},
		},
	}

	result := NewAnalyzer().Analyze(doc)
	kpis := result.KPIs

	if kpis.Period != "2024" {
		t.Fatalf("expected period 2024, got %q", kpis.Period)
	}
	if kpis.TotalSales != 1000 || kpis.CostOfSales != 400 || kpis.FixedCosts != 700 {
		t.Fatalf("unexpected aggregates: %+v", kpis)
	}
	if kpis.NetIncome != -100 {
		t.Fatalf("expected net income -100, got %v", kpis.NetIncome)
	}
	if kpis.Ratios.GrossMarginPct != 60.0 {
		t.Fatalf("expected gross margin 60.0, got %v", kpis.Ratios.GrossMarginPct)
	}
	if kpis.Ratios.NetMarginPct != -10.0 {
		t.Fatalf("expected net margin -10.0, got %v", kpis.Ratios.NetMarginPct)
	}

	// 700/1000 > 0.5 fires HIGH_FIXED_COSTS; margin 60 keeps LOW_GROSS_MARGIN out.
	if len(result.Improvements) != 1 {
		t.Fatalf("expected exactly 1 insight, got %+v", result.Improvements)
	}
	insight := result.Improvements[0]
	if insight.RuleID != "HIGH_FIXED_COSTS" || insight.Severity != domain.SeverityHigh {
		t.Fatalf("unexpected insight: %+v", insight)
	}
}

func TestAnalyzeLowGrossMarginBoundary(t *testing.T) {
	below := &domain.NormalizedDocument{Items: []domain.LineItem{
		{Category: "venta", Amount: 10000},
		{Category: "costo", Amount: -7001},
	}}
	result := NewAnalyzer().Analyze(below)
	if result.KPIs.Ratios.GrossMarginPct != 29.99 {
		t.Fatalf("expected margin 29.99, got %v", result.KPIs.Ratios.GrossMarginPct)
	}
	if len(result.Improvements) != 1 || result.Improvements[0].RuleID != "LOW_GROSS_MARGIN" {
		t.Fatalf("expected LOW_GROSS_MARGIN at 29.99, got %+v", result.Improvements)
	}

	at := &domain.NormalizedDocument{Items: []domain.LineItem{
		{Category: "venta", Amount: 1000},
		{Category: "costo", Amount: -700},
	}}
	result = NewAnalyzer().Analyze(at)
	if result.KPIs.Ratios.GrossMarginPct != 30.0 {
		t.Fatalf("expected margin 30.0, got %v", result.KPIs.Ratios.GrossMarginPct)
	}
	if len(result.Improvements) != 0 {
		t.Fatalf("boundary is strictly <30, got %+v", result.Improvements)
	}
}

func TestAnalyzeRuleOrderPreserved(t *testing.T) {
	doc := &domain.NormalizedDocument{Items: []domain.LineItem{
		{Category: "ingreso", Amount: 1000},
		{Category: "costo directo", Amount: -800},
		{Category: "gasto fijo", Amount: -600},
	}}

	result := NewAnalyzer().Analyze(doc)
	got := []string{}
	for _, insight := range result.Improvements {
		got = append(got, insight.RuleID)
	}
	want := []string{"HIGH_FIXED_COSTS", "LOW_GROSS_MARGIN"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected rule order %v, got %v", want, got)
	}
}

func TestAnalyzeIgnoresUnmatchedCategories(t *testing.T) {
	doc := &domain.NormalizedDocument{Items: []domain.LineItem{
		{Category: "venta", Amount: 500},
		{Category: "General", Amount: 99999},
		{Category: "activo fijo bancario", Amount: -1234},
	}}

	kpis := NewAnalyzer().Analyze(doc).KPIs
	if kpis.TotalSales != 500 {
		t.Fatalf("expected only venta aggregated, got %+v", kpis)
	}
	if kpis.CostOfSales != 0 || kpis.FixedCosts != 0 {
		t.Fatalf("unmatched categories must be ignored, got %+v", kpis)
	}
}

func TestAnalyzeZeroSalesGuards(t *testing.T) {
	doc := &domain.NormalizedDocument{Items: []domain.LineItem{
		{Category: "gasto admin", Amount: -300},
	}}

	result := NewAnalyzer().Analyze(doc)
	kpis := result.KPIs
	if kpis.TotalSales != 0 || kpis.NetIncome != -300 {
		t.Fatalf("unexpected kpis: %+v", kpis)
	}
	if kpis.Ratios.GrossMarginPct != 0 || kpis.Ratios.NetMarginPct != 0 {
		t.Fatalf("expected zero ratios without sales, got %+v", kpis.Ratios)
	}
	// Zero margin is below the 30 threshold, so the margin rule still fires;
	// the fixed-cost rule is guarded by sales>0 and must not.
	if len(result.Improvements) != 1 || result.Improvements[0].RuleID != "LOW_GROSS_MARGIN" {
		t.Fatalf("unexpected insights: %+v", result.Improvements)
	}
}

func TestAnalyzeEmptyPeriodFallsBackToUnknown(t *testing.T) {
	result := NewAnalyzer().Analyze(&domain.NormalizedDocument{})
	if result.KPIs.Period != "Unknown" {
		t.Fatalf("expected Unknown period, got %q", result.KPIs.Period)
	}
}
