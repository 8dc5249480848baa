// Package format renders a metric report for display: dash for
// undefined values, space-grouped thousands, and a trimmed decimal
// part.
package format

import (
	"fmt"
	"math"
	"strings"

	"finrep/pkg/core/calc"
)

// Value formats one number rounded to decimals places. Nil and NaN
// render as "-". A decimal part that rounds to all zeros is dropped,
// so 5.004 at two decimals comes back as "5", not "5.00".
func Value(v *float64, decimals int) string {
	if v == nil {
		return "-"
	}
	return Float(*v, decimals)
}

// Float is Value for a non-nullable number.
func Float(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	fixed := fmt.Sprintf("%.*f", decimals, v)
	integer, decimal, _ := strings.Cut(fixed, ".")

	neg := strings.HasPrefix(integer, "-")
	if neg {
		integer = integer[1:]
	}
	integer = groupThousands(integer)
	if neg {
		integer = "-" + integer
	}

	if decimal == "" || strings.Trim(decimal, "0") == "" {
		return integer
	}
	return integer + "." + decimal
}

// groupThousands inserts a space every three digits from the right.
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Report renders every metric with its display label. Monetary figures
// and percentages keep two decimals; day counts are whole numbers.
func Report(r *calc.Report) map[string]string {
	f := func(v float64) *float64 { return &v }
	out := map[string]string{
		"Report type": r.ReportType,

		"Net revenue, kUAH":                 template(f(r.NetRevenue)),
		"Equity, kUAH":                      template(f(r.Equity)),
		"Short-term loans, kUAH":            template(f(r.ShortTermLoans)),
		"Long-term loans, kUAH":             template(f(r.LongTermLoans)),
		"Other financial obligations, kUAH": template(f(r.OtherFinancialObligations)),
		"Equity ratio, %":                   template(f(r.EquityRatio)),
		"Net profit, kUAH":                  template(f(r.NetProfit)),
		"Assets dynamics, kUAH":             template(f(r.AssetsDynamics)),
		"EBITDA, kUAH":                      template(f(r.EBITDA)),
		"Operating profit, kUAH":            template(f(r.OperatingProfit)),
		"Depreciation, kUAH":                template(f(r.Depreciation)),
		"Net debt, kUAH":                    template(f(r.NetDebt)),
		"Net debt to EBITDA":                template(f(r.DebtToEBITDA)),
		"EBITDA to financial expenses":      template(f(r.EBITDAToFinancialExpenses)),

		"Current ratio": template(r.CurrentRatio),
		"Cash ratio":    template(r.CashRatio),
		"Quick ratio":   template(r.QuickRatio),

		"EBITDA margin, %":    template(r.EBITDAMargin),
		"Operating margin, %": template(r.OperatingMargin),

		"Inventory turnover, days":    Value(f(r.InventoryTurnoverDays), 0),
		"Receivables turnover, days":  Value(f(r.ReceivablesTurnoverDays), 0),
		"Payables turnover, days":     Value(r.PayablesTurnoverDays, 0),
		"Operating cycle, days":       Value(f(r.OperatingCycle), 0),
		"Cash conversion cycle, days": Value(f(r.CashConversionCycle), 0),

		"Revenue growth, %":     template(r.RevenueGrowthRate),
		"Receivables growth, %": template(r.ReceivablesGrowthRate),
		"Payables growth, %":    template(r.PayablesGrowthRate),

		"Financial independence ratio, %": template(f(r.FinancialIndependenceRatio)),
		"Fixed assets share, %":           template(r.FixedAssetsRatio),
		"Fixed assets wear rate, %":       template(r.FixedAssetsWearRate),
		"One-year debt headroom, kUAH":    template(f(r.DebtToRevenueRatio)),
	}
	return out
}

// template is the default two-decimal rendering.
func template(v *float64) string { return Value(v, 2) }
