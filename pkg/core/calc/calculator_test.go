package calc

import (
	"math"
	"testing"

	"finrep/pkg/models"
)

func shortRecord(lines map[string]float64) *models.StatementRecord {
	return &models.StatementRecord{TIN: "12345678", Y: 2024, M: 12, FormID: models.FormShortReport, Lines: lines}
}

func fullRecord(lines map[string]float64) *models.StatementRecord {
	return &models.StatementRecord{TIN: "12345678", Y: 2024, M: 12, FormID: models.FormFullReport, Lines: lines}
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestShortFormOperatingProfit(t *testing.T) {
	// Revenue 1000, COGS filed as -400: magnitude is deducted, so
	// operating profit is 600, not 1400.
	c := NewCalculator(shortRecord(map[string]float64{
		"R2000G3": 1000,
		"R2050G3": -400,
	}))
	if got := c.OperatingProfit(); !almostEqual(got, 600) {
		t.Errorf("OperatingProfit = %f, want 600", got)
	}
}

func TestFullFormOperatingProfitFallsBackToLossRow(t *testing.T) {
	c := NewCalculator(fullRecord(map[string]float64{
		"R2190G3": 0,
		"R2195G3": -250,
	}))
	if got := c.OperatingProfit(); got != -250 {
		t.Errorf("OperatingProfit = %f, want loss row -250", got)
	}
	c = NewCalculator(fullRecord(map[string]float64{"R2190G3": 800, "R2195G3": -250}))
	if got := c.OperatingProfit(); got != 800 {
		t.Errorf("OperatingProfit = %f, want profit row 800", got)
	}
}

func TestEBITDAClampsNegativeDepreciation(t *testing.T) {
	// Short form: wear delta 1012G4-1012G3 = -50 after a revaluation.
	// EBITDA must equal operating profit, not profit - 50.
	c := NewCalculator(shortRecord(map[string]float64{
		"R2000G3": 500,
		"R1012G4": 100,
		"R1012G3": 150,
	}))
	if got := c.Depreciation(); got != -50 {
		t.Fatalf("Depreciation = %f, want -50", got)
	}
	if got := c.EBITDA(); !almostEqual(got, 500) {
		t.Errorf("EBITDA = %f, want 500", got)
	}
}

func TestNetDebtByFormType(t *testing.T) {
	lines := map[string]float64{
		"R1510G4": 200, // long-term loans, full form
		"R1595G4": 300, // long-term section total, short form
		"R1600G4": 100,
		"R1610G4": 50,
		"R1515G4": 40,
		"R1165G4": 80,
	}
	// full: 200 + 100 + 50 - 80 + 40 = 310
	if got := NewCalculator(fullRecord(lines)).NetDebt(); !almostEqual(got, 310) {
		t.Errorf("full NetDebt = %f, want 310", got)
	}
	// short: 300 + 100 + 50 - 80 = 370 (row 1515 not included)
	if got := NewCalculator(shortRecord(lines)).NetDebt(); !almostEqual(got, 370) {
		t.Errorf("short NetDebt = %f, want 370", got)
	}
}

func TestNullableRatios(t *testing.T) {
	c := NewCalculator(shortRecord(map[string]float64{
		"R1195G4": 500, // current assets with no current liabilities
	}))
	if c.CurrentRatio() != nil {
		t.Error("CurrentRatio must be nil when current liabilities are 0")
	}
	if c.CashRatio() != nil || c.QuickRatio() != nil {
		t.Error("cash and quick ratios must be nil when current liabilities are 0")
	}
	if c.EBITDAMargin() != nil {
		t.Error("EBITDAMargin must be nil on zero revenue")
	}
	if c.RevenueGrowthRate() != nil {
		t.Error("RevenueGrowthRate must be nil on zero prior revenue")
	}

	// Zero denominators that fall back to 0 instead of null.
	if got := c.InventoryTurnoverDays(); got != 0 {
		t.Errorf("InventoryTurnoverDays = %f, want 0 on zero COGS", got)
	}
	if got := c.DebtToEBITDA(); got != 0 {
		t.Errorf("DebtToEBITDA = %f, want 0 on zero EBITDA", got)
	}
	if got := c.EBITDAToFinancialExpenses(); got != 0 {
		t.Errorf("EBITDAToFinancialExpenses = %f, want 0 on zero fin expenses", got)
	}
	if c.PayablesTurnoverDays() != nil {
		t.Error("PayablesTurnoverDays must be nil on zero COGS")
	}
	if got := c.CashConversionCycle(); got != 0 {
		t.Errorf("CashConversionCycle = %f, want 0 when payables days undefined", got)
	}
}

func TestAnnualizationHalfYear(t *testing.T) {
	rec := shortRecord(map[string]float64{
		"R2000G3": 600, // half-year revenue
		"R1595G4": 500,
		"R1125G4": 100,
	})
	rec.M = 6
	c := NewCalculator(rec)
	// EBITDA = operating profit = 600; annualized 1200; netDebt 500.
	if got := c.DebtToEBITDA(); !almostEqual(got, 500.0/1200.0) {
		t.Errorf("DebtToEBITDA = %f, want %f", got, 500.0/1200.0)
	}
	// Receivables days use period-scaled 365: 100/600*365/2 ≈ 30.42.
	if got := c.ReceivablesTurnoverDays(); !almostEqual(got, 100.0/600.0*365.0/2.0) {
		t.Errorf("ReceivablesTurnoverDays = %f, want %f", got, 100.0/600.0*365.0/2.0)
	}
	// debtToRevenueRatio = 1200 - 500.
	if got := c.DebtToRevenueRatio(); !almostEqual(got, 700) {
		t.Errorf("DebtToRevenueRatio = %f, want 700", got)
	}
}

func TestZeroMonthsFallsBackToNoScaling(t *testing.T) {
	rec := shortRecord(map[string]float64{"R2000G3": 100, "R1595G4": 50})
	rec.M = 0
	c := NewCalculator(rec)
	if got := c.DebtToRevenueRatio(); !almostEqual(got, 50) {
		t.Errorf("DebtToRevenueRatio = %f, want 100*1 - 50 = 50", got)
	}
}

func TestCalculateAssemblesReport(t *testing.T) {
	c := NewCalculator(shortRecord(map[string]float64{
		"R2000G3": 1000,
		"R2050G3": -400,
		"R1495G4": 300,
		"R1300G4": 1200,
		"R1300G3": 1000,
		"R1195G4": 600,
		"R1695G4": 400,
		"R1100G4": 120,
		"R1615G4": 90,
	}))
	rep := c.Calculate()

	if rep.ReportType != "short" {
		t.Errorf("ReportType = %q, want short", rep.ReportType)
	}
	if !almostEqual(rep.OperatingProfit, 600) || !almostEqual(rep.EBITDA, 600) {
		t.Errorf("profit/ebitda = %f/%f, want 600/600", rep.OperatingProfit, rep.EBITDA)
	}
	if !almostEqual(rep.EquityRatio, 25) {
		t.Errorf("EquityRatio = %f, want 300/1200*100 = 25", rep.EquityRatio)
	}
	if rep.FinancialIndependenceRatio != rep.EquityRatio {
		t.Error("financial independence must equal the equity ratio")
	}
	if !almostEqual(rep.AssetsDynamics, 200) {
		t.Errorf("AssetsDynamics = %f, want 200", rep.AssetsDynamics)
	}
	if rep.CurrentRatio == nil || !almostEqual(*rep.CurrentRatio, 1.5) {
		t.Errorf("CurrentRatio = %v, want 1.5", rep.CurrentRatio)
	}
	if rep.QuickRatio == nil || !almostEqual(*rep.QuickRatio, 1.2) {
		t.Errorf("QuickRatio = %v, want (600-120)/400 = 1.2", rep.QuickRatio)
	}
	// inventory days: 120/400*365 = 109.5
	if !almostEqual(rep.InventoryTurnoverDays, 109.5) {
		t.Errorf("InventoryTurnoverDays = %f, want 109.5", rep.InventoryTurnoverDays)
	}
	// payables days: 90/400*365 = 82.125
	if rep.PayablesTurnoverDays == nil || !almostEqual(*rep.PayablesTurnoverDays, 82.125) {
		t.Errorf("PayablesTurnoverDays = %v, want 82.125", rep.PayablesTurnoverDays)
	}
	// cash conversion: 109.5 + 0 - 82.125 = 27.375
	if !almostEqual(rep.CashConversionCycle, 27.375) {
		t.Errorf("CashConversionCycle = %f, want 27.375", rep.CashConversionCycle)
	}

	// Calculation must not mutate the record; a second pass agrees.
	rep2 := c.Calculate()
	if rep2.EBITDA != rep.EBITDA || rep2.CashConversionCycle != rep.CashConversionCycle {
		t.Error("Calculate is not idempotent")
	}
}

func TestFixedAssetsMetrics(t *testing.T) {
	c := NewCalculator(fullRecord(map[string]float64{
		"R1010G4": 250,
		"R1011G4": 400,
		"R1012G4": 150,
		"R1300G4": 1000,
	}))
	if got := c.FixedAssetsRatio(); got == nil || !almostEqual(*got, 25) {
		t.Errorf("FixedAssetsRatio = %v, want 25", got)
	}
	if got := c.FixedAssetsWearRate(); got == nil || !almostEqual(*got, 37.5) {
		t.Errorf("FixedAssetsWearRate = %v, want 150/400*100 = 37.5", got)
	}
	if NewCalculator(fullRecord(map[string]float64{})).FixedAssetsRatio() != nil {
		t.Error("FixedAssetsRatio must be nil on zero total assets")
	}
}
