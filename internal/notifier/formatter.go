package notifier

import (
	"fmt"
	"html"
	"strings"

	"BreakoutScreener/internal/scanner"
)

// FormatScanReport renders a scan summary as a Telegram HTML message.
func FormatScanReport(r *scanner.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>Breakout scan</b> | %s\n\n", r.Date))
	b.WriteString(fmt.Sprintf("Universe: %d | Found: %d | Failed: %d\n", r.Universe, len(r.Results), r.Failed))
	b.WriteString(fmt.Sprintf("Elapsed: %.1f min\n\n", r.Duration.Minutes()))

	if len(r.Results) == 0 {
		b.WriteString("No tickers qualified today.\n")
	} else {
		b.WriteString("🔥 <b>First day above MA20/60/120/240 with RSI confirmation:</b>\n")
		for _, res := range r.Results {
			b.WriteString(fmt.Sprintf("  • <code>%s</code> %s\n", html.EscapeString(res.Ticker), html.EscapeString(res.Name)))
		}
	}

	if r.StoreErr != nil {
		b.WriteString(fmt.Sprintf("\n❌ Store update failed: %s\n", html.EscapeString(r.StoreErr.Error())))
	}
	if r.Failed > 0 && r.Failed == r.Universe {
		b.WriteString("\n⚠️ Every ticker failed evaluation; check the data provider.\n")
	}
	return b.String()
}

// FormatFailure renders an aborted run.
func FormatFailure(err error) string {
	return fmt.Sprintf("❌ <b>Breakout scan failed</b>\n\n%s", html.EscapeString(err.Error()))
}
