package notifier

import (
	"fmt"
	"strings"
	"time"

	"StockCast/internal/calculator"
	"StockCast/internal/model"
)

// FormatForecastSummary formats one ticker's latest stats and forecast end
// point into a Telegram message.
func FormatForecastSummary(series *model.PriceSeries, stats model.KeyStats, fc *model.ForecastFrame) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>%s</b> | %s\n\n", series.Symbol, time.Now().Format("2006-01-02")))

	b.WriteString(fmt.Sprintf("Close: %.2f (%s)\n", stats.LatestClose, stats.ChangeText))
	b.WriteString(fmt.Sprintf("Range: %.2f – %.2f (%.0f%%)\n", stats.PeriodLow, stats.PeriodHigh, stats.RangePosition*100))

	closes := series.Closes()
	if sma, err := calculator.CalculateSMA(closes, calculator.ShortWindow); err == nil {
		b.WriteString(fmt.Sprintf("SMA%d: %.2f", calculator.ShortWindow, sma))
		if sma100, err := calculator.CalculateSMA(closes, calculator.LongWindow); err == nil {
			b.WriteString(fmt.Sprintf(" | SMA%d: %.2f", calculator.LongWindow, sma100))
		}
		b.WriteString("\n")
	}

	if fc != nil {
		if last, ok := fc.Last(); ok {
			b.WriteString(fmt.Sprintf("\n🔮 <b>Forecast</b> %s (+%dd, %s)\n", last.DS.Format("2006-01-02"), fc.HorizonDays, fc.Model))
			b.WriteString(fmt.Sprintf("   yhat: %.2f\n", last.YHat))
			b.WriteString(fmt.Sprintf("   %.0f%% interval: %.2f – %.2f\n", fc.Interval*100, last.Lower, last.Upper))
		}
	}
	return b.String()
}

// FormatDigest joins per-ticker summaries into one scheduled message.
func FormatDigest(summaries []string, failed []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗞 <b>StockCast digest</b> | %s\n\n", time.Now().Format("2006-01-02")))
	b.WriteString(strings.Join(summaries, "\n"))
	if len(failed) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ Failed: %s\n", strings.Join(failed, ", ")))
	}
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp(tickers []string) string {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	b.WriteString("• /forecast TICKER: one-year forecast summary\n")
	b.WriteString("• /help: this message\n")
	if len(tickers) > 0 {
		b.WriteString(fmt.Sprintf("\nTickers: %s", strings.Join(tickers, ", ")))
	}
	return b.String()
}
