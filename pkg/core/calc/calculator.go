// Package calc derives credit-analysis ratios from a reconciled
// financial statement record. Every metric is computed from the raw
// line items of form 1 (balance sheet) and form 2 (income statement);
// short-form filings (S0110014) use substitute lines where the full
// form's rows do not exist.
package calc

import "finrep/pkg/models"

// Report holds the full metric set for one entity and period. Pointer
// fields are nullable: a nil value marshals as JSON null and means the
// ratio is undefined for this statement (zero denominator), which is
// distinct from a computed zero.
type Report struct {
	// Base figures, kUAH
	NetRevenue                float64 `json:"netRevenue"`
	Equity                    float64 `json:"equity"`
	ShortTermLoans            float64 `json:"shortTermLoans"`
	LongTermLoans             float64 `json:"longTermLoans"`
	OtherFinancialObligations float64 `json:"otherFinancialObligations"`
	EquityRatio               float64 `json:"equityRatio"`
	NetProfit                 float64 `json:"netProfit"`
	AssetsDynamics            float64 `json:"assetsDynamics"`
	EBITDA                    float64 `json:"ebitda"`
	OperatingProfit           float64 `json:"operatingProfit"`
	Depreciation              float64 `json:"depreciation"`
	NetDebt                   float64 `json:"netDebt"`
	DebtToEBITDA              float64 `json:"debtToEBITDA"`
	EBITDAToFinancialExpenses float64 `json:"ebitdaToFinancialExpenses"`

	// Liquidity
	CurrentRatio *float64 `json:"currentRatio"`
	CashRatio    *float64 `json:"cashRatio"`
	QuickRatio   *float64 `json:"quickRatio"`

	// Profitability, %
	EBITDAMargin    *float64 `json:"ebitdaMargin"`
	OperatingMargin *float64 `json:"operatingMargin"`

	// Turnover, days
	InventoryTurnoverDays   float64  `json:"inventoryTurnoverDays"`
	ReceivablesTurnoverDays float64  `json:"receivablesTurnoverDays"`
	PayablesTurnoverDays    *float64 `json:"payablesTurnoverDays"`
	OperatingCycle          float64  `json:"operatingCycle"`
	CashConversionCycle     float64  `json:"cashConversionCycle"`

	// Growth, %
	RevenueGrowthRate     *float64 `json:"revenueGrowthRate"`
	ReceivablesGrowthRate *float64 `json:"receivablesGrowthRate"`
	PayablesGrowthRate    *float64 `json:"payablesGrowthRate"`

	// Structure
	FinancialIndependenceRatio float64  `json:"financialIndependenceRatio"`
	FixedAssetsRatio           *float64 `json:"fixedAssetsRatio"`
	FixedAssetsWearRate        *float64 `json:"fixedAssetsWearRate"`
	DebtToRevenueRatio         float64  `json:"debtToRevenueRatio"`

	ReportType string `json:"reportType"`
}

// Calculator computes metrics over one statement record.
type Calculator struct {
	rec      *models.StatementRecord
	isFull   bool
	yearMult float64
}

func NewCalculator(rec *models.StatementRecord) *Calculator {
	mult := 1.0
	if rec.M > 0 {
		mult = 12.0 / float64(rec.M)
	}
	return &Calculator{
		rec:      rec,
		isFull:   rec.IsFullReport(),
		yearMult: mult,
	}
}

func (c *Calculator) line(code string) float64 { return c.rec.Line(code) }

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// ==================== Base figures ====================

// NetRevenue is form 2 row 2000.
func (c *Calculator) NetRevenue() float64 { return c.line("R2000G3") }

// Equity is form 1 row 1495.
func (c *Calculator) Equity() float64 { return c.line("R1495G4") }

// ShortTermLoans is form 1 row 1600.
func (c *Calculator) ShortTermLoans() float64 { return c.line("R1600G4") }

// LongTermLoans is row 1510 on the full form; the short form folds long
// term debt into the section total, row 1595.
func (c *Calculator) LongTermLoans() float64 {
	if c.isFull {
		return c.line("R1510G4")
	}
	return c.line("R1595G4")
}

// OtherLongTermObligations is form 1 row 1515.
func (c *Calculator) OtherLongTermObligations() float64 { return c.line("R1515G4") }

// OtherObligations is form 1 row 1690.
func (c *Calculator) OtherObligations() float64 { return c.line("R1690G4") }

// EquityRatio is equity over total assets, %. Zero assets yields 0.
func (c *Calculator) EquityRatio() float64 {
	totalAssets := c.line("R1300G4")
	if totalAssets == 0 {
		return 0
	}
	return c.Equity() / totalAssets * 100
}

// NetProfit is form 2 row 2350.
func (c *Calculator) NetProfit() float64 { return c.line("R2350G3") }

// AssetsDynamics is the change in total assets over the period.
func (c *Calculator) AssetsDynamics() float64 {
	return c.line("R1300G4") - c.line("R1300G3")
}

// Depreciation is row 2515 on the full form. The short form has no
// income-statement depreciation row, so it is taken as the accumulated
// wear delta on the balance sheet.
func (c *Calculator) Depreciation() float64 {
	if c.isFull {
		return c.line("R2515G3")
	}
	return c.line("R1012G4") - c.line("R1012G3")
}

// OperatingProfit is row 2190 (profit) or, when that is zero, row 2195
// (loss) on the full form. The short form derives it:
// revenue + other operating income - COGS - other operating expenses,
// with the expense rows taken by magnitude since filers report them
// with inconsistent sign.
func (c *Calculator) OperatingProfit() float64 {
	if c.isFull {
		if v := c.line("R2190G3"); v != 0 {
			return v
		}
		return c.line("R2195G3")
	}
	return c.NetRevenue() + c.OtherOperatingIncome() - c.CostOfGoodsSold() - c.OtherOperatingExpenses()
}

// FinancialExpenses is form 2 row 2250 by magnitude.
func (c *Calculator) FinancialExpenses() float64 { return abs(c.line("R2250G3")) }

// OtherOperatingExpenses is form 2 row 2180 by magnitude.
func (c *Calculator) OtherOperatingExpenses() float64 { return abs(c.line("R2180G3")) }

// OtherOperatingIncome is form 2 row 2120.
func (c *Calculator) OtherOperatingIncome() float64 { return c.line("R2120G3") }

// EBITDA adds period depreciation back to operating profit. Negative
// depreciation (short-form wear delta after a revaluation) is clamped
// to zero rather than deducted.
func (c *Calculator) EBITDA() float64 {
	depreciation := c.Depreciation()
	if depreciation < 0 {
		depreciation = 0
	}
	return c.OperatingProfit() + depreciation
}

// CashAndEquivalents is form 1 row 1165.
func (c *Calculator) CashAndEquivalents() float64 { return c.line("R1165G4") }

// NetDebt = long-term loans + short-term loans + current portion of
// long-term debt - cash. The full form additionally carries other
// long-term obligations (row 1515) as debt.
func (c *Calculator) NetDebt() float64 {
	result := c.LongTermLoans() + c.ShortTermLoans() + c.line("R1610G4") - c.CashAndEquivalents()
	if c.isFull {
		result += c.OtherLongTermObligations()
	}
	return result
}

// DebtToEBITDA relates net debt to annualized EBITDA. Zero EBITDA
// yields 0.
func (c *Calculator) DebtToEBITDA() float64 {
	ebitda := c.EBITDA()
	if ebitda == 0 {
		return 0
	}
	return c.NetDebt() / (ebitda * c.yearMult)
}

// EBITDAToFinancialExpenses is the interest coverage ratio on
// annualized EBITDA. Zero financial expenses yields 0.
func (c *Calculator) EBITDAToFinancialExpenses() float64 {
	finExpenses := c.FinancialExpenses()
	if finExpenses == 0 {
		return 0
	}
	return c.EBITDA() * c.yearMult / finExpenses
}

// ==================== Liquidity ====================

// CurrentAssets is form 1 row 1195.
func (c *Calculator) CurrentAssets() float64 { return c.line("R1195G4") }

// CurrentLiabilities is form 1 row 1695.
func (c *Calculator) CurrentLiabilities() float64 { return c.line("R1695G4") }

// CurrentRatio is current assets over current liabilities; nil when the
// entity reports no current liabilities.
func (c *Calculator) CurrentRatio() *float64 {
	return ratio(c.CurrentAssets(), c.CurrentLiabilities())
}

// CashRatio is cash over current liabilities.
func (c *Calculator) CashRatio() *float64 {
	return ratio(c.CashAndEquivalents(), c.CurrentLiabilities())
}

// QuickRatio excludes inventory from current assets.
func (c *Calculator) QuickRatio() *float64 {
	return ratio(c.CurrentAssets()-c.Inventory(), c.CurrentLiabilities())
}

// ==================== Profitability ====================

// EBITDAMargin is EBITDA over net revenue, %; nil on zero revenue.
func (c *Calculator) EBITDAMargin() *float64 {
	return percent(c.EBITDA(), c.NetRevenue())
}

// OperatingMargin is operating profit over net revenue, %.
func (c *Calculator) OperatingMargin() *float64 {
	return percent(c.OperatingProfit(), c.NetRevenue())
}

// ==================== Turnover ====================

// Inventory is form 1 row 1100.
func (c *Calculator) Inventory() float64 { return c.line("R1100G4") }

// CostOfGoodsSold is form 2 row 2050 by magnitude.
func (c *Calculator) CostOfGoodsSold() float64 { return abs(c.line("R2050G3")) }

// AccountsReceivable is form 1 row 1125.
func (c *Calculator) AccountsReceivable() float64 { return c.line("R1125G4") }

// AccountsPayable is form 1 row 1615.
func (c *Calculator) AccountsPayable() float64 { return c.line("R1615G4") }

// InventoryTurnoverDays is inventory over COGS scaled to days of the
// reporting period. Zero COGS yields 0.
func (c *Calculator) InventoryTurnoverDays() float64 {
	return c.turnoverDays(c.Inventory(), c.CostOfGoodsSold())
}

// ReceivablesTurnoverDays is receivables over revenue in days.
func (c *Calculator) ReceivablesTurnoverDays() float64 {
	return c.turnoverDays(c.AccountsReceivable(), c.NetRevenue())
}

// PayablesTurnoverDays is payables over COGS in days; unlike the other
// turnover metrics it is nil, not 0, on a zero denominator.
func (c *Calculator) PayablesTurnoverDays() *float64 {
	cogs := c.CostOfGoodsSold()
	if cogs == 0 {
		return nil
	}
	v := c.turnoverDays(c.AccountsPayable(), cogs)
	return &v
}

// OperatingCycle is inventory days plus receivables days.
func (c *Calculator) OperatingCycle() float64 {
	return c.InventoryTurnoverDays() + c.ReceivablesTurnoverDays()
}

// CashConversionCycle is the operating cycle shortened by payables
// days; 0 when payables turnover is undefined.
func (c *Calculator) CashConversionCycle() float64 {
	payablesDays := c.PayablesTurnoverDays()
	if payablesDays == nil {
		return 0
	}
	return c.OperatingCycle() - *payablesDays
}

func (c *Calculator) turnoverDays(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator * 365 / c.yearMult
}

// ==================== Growth ====================

// RevenueGrowthRate compares period revenue with the comparative
// column; nil when the prior period is zero.
func (c *Calculator) RevenueGrowthRate() *float64 {
	return growth(c.line("R2000G3"), c.line("R2000G4"))
}

func (c *Calculator) ReceivablesGrowthRate() *float64 {
	return growth(c.line("R1125G4"), c.line("R1125G3"))
}

func (c *Calculator) PayablesGrowthRate() *float64 {
	return growth(c.line("R1615G4"), c.line("R1615G3"))
}

// ==================== Structure ====================

// FinancialIndependenceRatio is the equity share of the balance total.
func (c *Calculator) FinancialIndependenceRatio() float64 { return c.EquityRatio() }

// FixedAssets is form 1 row 1010.
func (c *Calculator) FixedAssets() float64 { return c.line("R1010G4") }

// FixedAssetsRatio is fixed assets over total assets, %.
func (c *Calculator) FixedAssetsRatio() *float64 {
	return percent(c.FixedAssets(), c.line("R1300G4"))
}

// FixedAssetsWearRate is accumulated wear over original cost, %.
func (c *Calculator) FixedAssetsWearRate() *float64 {
	return percent(c.line("R1012G4"), c.line("R1011G4"))
}

// DebtToRevenueRatio is the one-year debt headroom: annualized EBITDA
// less net debt.
func (c *Calculator) DebtToRevenueRatio() float64 {
	return c.EBITDA()*c.yearMult - c.NetDebt()
}

// ==================== Assembly ====================

// Calculate evaluates every metric into a Report.
func (c *Calculator) Calculate() *Report {
	reportType := "short"
	if c.isFull {
		reportType = "full"
	}
	return &Report{
		NetRevenue:                c.NetRevenue(),
		Equity:                    c.Equity(),
		ShortTermLoans:            c.ShortTermLoans(),
		LongTermLoans:             c.LongTermLoans(),
		OtherFinancialObligations: c.OtherObligations(),
		EquityRatio:               c.EquityRatio(),
		NetProfit:                 c.NetProfit(),
		AssetsDynamics:            c.AssetsDynamics(),
		EBITDA:                    c.EBITDA(),
		OperatingProfit:           c.OperatingProfit(),
		Depreciation:              c.Depreciation(),
		NetDebt:                   c.NetDebt(),
		DebtToEBITDA:              c.DebtToEBITDA(),
		EBITDAToFinancialExpenses: c.EBITDAToFinancialExpenses(),

		CurrentRatio: c.CurrentRatio(),
		CashRatio:    c.CashRatio(),
		QuickRatio:   c.QuickRatio(),

		EBITDAMargin:    c.EBITDAMargin(),
		OperatingMargin: c.OperatingMargin(),

		InventoryTurnoverDays:   c.InventoryTurnoverDays(),
		ReceivablesTurnoverDays: c.ReceivablesTurnoverDays(),
		PayablesTurnoverDays:    c.PayablesTurnoverDays(),
		OperatingCycle:          c.OperatingCycle(),
		CashConversionCycle:     c.CashConversionCycle(),

		RevenueGrowthRate:     c.RevenueGrowthRate(),
		ReceivablesGrowthRate: c.ReceivablesGrowthRate(),
		PayablesGrowthRate:    c.PayablesGrowthRate(),

		FinancialIndependenceRatio: c.FinancialIndependenceRatio(),
		FixedAssetsRatio:           c.FixedAssetsRatio(),
		FixedAssetsWearRate:        c.FixedAssetsWearRate(),
		DebtToRevenueRatio:         c.DebtToRevenueRatio(),

		ReportType: reportType,
	}
}

// ratio returns numerator/denominator, nil on a zero denominator.
func ratio(numerator, denominator float64) *float64 {
	if denominator == 0 {
		return nil
	}
	v := numerator / denominator
	return &v
}

// percent is ratio scaled by 100.
func percent(numerator, denominator float64) *float64 {
	if denominator == 0 {
		return nil
	}
	v := numerator / denominator * 100
	return &v
}

// growth is the relative change current vs prior, %; nil when the
// prior value is zero.
func growth(current, prior float64) *float64 {
	if prior == 0 {
		return nil
	}
	v := (current - prior) / prior * 100
	return &v
}
