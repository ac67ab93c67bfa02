package notifier

import (
	"fmt"
	"html"
	"strings"

	"MarketPulse/internal/model"
)

const maxListedSignals = 10

var actionIcons = map[model.Action]string{
	model.ActionStrongBuy:  "🟢",
	model.ActionBuy:        "🟢",
	model.ActionWatch:      "👀",
	model.ActionStrongSell: "🔴",
	model.ActionReduce:     "🟠",
	model.ActionSell:       "🔴",
	model.ActionHold:       "⚪",
}

// FormatSnapshot formats a full market snapshot into a Telegram message.
func FormatSnapshot(snap *model.MarketSnapshot) string {
	if snap == nil {
		return "No analysis has run yet."
	}
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>MarketPulse</b> | %s UTC\n\n", snap.GeneratedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("<b>%s</b>\n%s\n\n", html.EscapeString(snap.Headline), html.EscapeString(snap.Body)))
	b.WriteString(fmt.Sprintf("Crypto Fear &amp; Greed: %d (%s)\n", snap.SentimentValue, html.EscapeString(snap.SentimentLabel)))
	b.WriteString(fmt.Sprintf("Stock market mood: %d/100\n", snap.MarketMood))
	if snap.Status != model.StatusSuccess {
		b.WriteString(fmt.Sprintf("Status: %s\n", snap.Status))
	}

	if len(snap.Signals) > 0 {
		b.WriteString("\n📈 <b>Signals:</b>\n")
		for i, sig := range snap.Signals {
			if i == maxListedSignals {
				b.WriteString(fmt.Sprintf("  … and %d more\n", len(snap.Signals)-maxListedSignals))
				break
			}
			b.WriteString(formatSignalLine(sig))
		}
	}

	if len(snap.TopMovers) > 0 {
		b.WriteString("\n🚀 <b>Top movers:</b>\n")
		for _, m := range snap.TopMovers {
			b.WriteString(fmt.Sprintf("  %s %s (%s)\n", html.EscapeString(m.Symbol), m.Change24h, m.Price))
		}
	}
	return b.String()
}

func formatSignalLine(sig model.Signal) string {
	return fmt.Sprintf("  %s %s %s · %s · %d\n", actionIcons[sig.Action], html.EscapeString(sig.Symbol), sig.SignalType, sig.Action, sig.Score)
}

// FormatSignal formats one signal with its stats and narrative.
func FormatSignal(sig *model.Signal) string {
	if sig == nil {
		return "No signals available."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b> | %s\n\n", actionIcons[sig.Action], html.EscapeString(sig.Symbol), sig.SignalType))
	b.WriteString(fmt.Sprintf("Action: %s (score %d)\n", sig.Action, sig.Score))
	b.WriteString(fmt.Sprintf("Price: %s\n", sig.Price))
	b.WriteString(fmt.Sprintf("RSI: %s | Volume: %s\n", sig.Stats.RSI, sig.Stats.VolRatio))
	b.WriteString(fmt.Sprintf("24h range: %s - %s\n", sig.Stats.Low24h, sig.Stats.High24h))
	b.WriteString(fmt.Sprintf("\n%s\n", html.EscapeString(sig.Narrative)))
	return b.String()
}

// FormatAlert formats the high-conviction alert pushed after a run.
func FormatAlert(snap *model.MarketSnapshot) string {
	return fmt.Sprintf("🚨 <b>%s</b>\n\n%s", html.EscapeString(snap.Headline), FormatSignal(snap.Top()))
}
