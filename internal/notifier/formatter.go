package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"BinaryTrade/internal/model"
)

// FormatPlacement formats a newly opened wager into a notice.
func FormatPlacement(w *model.Wager, assetName string) string {
	arrow := "🟢 Up"
	if w.Direction == model.DirectionLower {
		arrow = "🔴 Down"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s wager placed | %s\n\n", arrow, assetName))
	b.WriteString(fmt.Sprintf("Stake: $%s\n", humanize.CommafWithDigits(w.Amount, 2)))
	b.WriteString(fmt.Sprintf("Entry price: %s\n", humanize.CommafWithDigits(w.EntryPrice, 4)))
	b.WriteString(fmt.Sprintf("Expires: %s\n", w.ExpiresAt.Format("15:04:05")))
	return b.String()
}

// FormatSettlement formats a settled wager into a win/loss notice.
func FormatSettlement(w *model.Wager) string {
	var b strings.Builder
	if w.Status == model.StatusWon {
		b.WriteString(fmt.Sprintf("✅ <b>Wager won</b> +$%s\n\n", humanize.CommafWithDigits(w.Result, 2)))
	} else {
		b.WriteString(fmt.Sprintf("❌ <b>Wager lost</b> -$%s\n\n", humanize.CommafWithDigits(w.Amount, 2)))
	}
	b.WriteString(fmt.Sprintf("Direction: %s\n", w.Direction))
	b.WriteString(fmt.Sprintf("Entry: %s | Settlement: %s\n",
		humanize.CommafWithDigits(w.EntryPrice, 4),
		humanize.CommafWithDigits(w.SettlementPrice, 4)))
	b.WriteString(fmt.Sprintf("Settled at %s\n", time.Now().Format("2006-01-02 15:04:05")))
	return b.String()
}

// FormatBalance formats the account balance for display.
func FormatBalance(balance float64) string {
	return fmt.Sprintf("💰 Balance: $%s", humanize.CommafWithDigits(balance, 2))
}
