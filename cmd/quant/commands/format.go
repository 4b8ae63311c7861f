package commands

import (
	"fmt"
	"strconv"

	"github.com/wonny/capm-optimizer/internal/pipeline"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const dateLayout = "2006-01-02"

// PrintReport prints one optimization run
func PrintReport(r *pipeline.Report) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", r.ID)
	PrintSeparator()
	PrintKeyValue("Run ID", r.RunID, 14)
	if r.ConfigHash != "" {
		PrintKeyValue("Config Hash", r.ConfigHash[:12], 14)
	}
	PrintKeyValue("Period", fmt.Sprintf("%s ~ %s (%d obs)", r.Start.Format(dateLayout), r.End.Format(dateLayout), r.Observations), 14)
	PrintKeyValue("Market", r.MarketSymbol, 14)
	PrintKeyValue("E[R_M]", formatFloat(r.Market.ExpectedReturn), 14)
	PrintKeyValue("Var[R_M]", formatFloat(r.Market.Variance), 14)
	PrintKeyValue("Premium", formatFloat(r.MarketPremium), 14)
	PrintKeyValue("Covariance", r.CovarianceSource, 14)
	PrintSeparator()

	opt := r.Optimization
	widths := []int{10, 10, 12, 12, 12}
	PrintTableHeader([]string{"Symbol", "Beta", "E[R]", "Variance", "Weight"}, widths)
	variances := r.Covariance.Diagonal()
	for i, symbol := range r.Betas.Symbols {
		weight, _ := opt.Weights.Get(symbol)
		PrintTableRow([]string{
			symbol,
			formatFloat(r.Betas.Values[i]),
			formatFloat(r.ExpectedReturns.Values[i]),
			formatFloat(variances[i]),
			formatPercent(weight),
		}, widths)
	}
	PrintSeparator()

	PrintKeyValue("Return", formatFloat(opt.Metrics.ExpectedReturn), 14)
	PrintKeyValue("Volatility", formatFloat(opt.Metrics.Volatility), 14)
	PrintKeyValue("Sharpe", formatFloat(opt.Metrics.Sharpe), 14)
	PrintKeyValue("VaR 95%", formatPercent(r.HistoricalVaR.VaR), 14)
	PrintKeyValue("CVaR 95%", formatPercent(r.HistoricalVaR.CVaR), 14)
	PrintKeyValue("Normal VaR", fmt.Sprintf("%s (CVaR %s)",
		formatPercent(r.ParametricVaR.VaR), formatPercent(r.ParametricVaR.CVaR)), 14)
	PrintKeyValue("In-sample", fmt.Sprintf("return %s, max DD %s, sortino %s",
		formatPercent(r.InSample.AnnualReturn), formatPercent(r.InSample.MaxDrawdown), formatFloat(r.InSample.Sortino)), 14)
	PrintKeyValue("Solver", fmt.Sprintf("%s / %s (%d iter)", opt.Method, opt.Status, opt.Iterations), 14)
	if opt.Clipped {
		PrintWarning("Negative weights were clipped to 0 and renormalized")
	}
	fmt.Printf("✅ Completed in %dms\n", r.DurationMs)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	for i := 0; i < totalWidth; i++ {
		fmt.Print("─")
	}
	fmt.Println()
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}
