package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/five82/folio/internal/api"
)

// formatPrice renders an amount in yuan with two decimals.
func formatPrice(d decimal.Decimal) string {
	return "¥" + d.StringFixed(2)
}

// priceLabel renders the charged price and, for discounted books, the list
// price and the rebate.
func priceLabel(b api.Book) (sale string, list string, off string) {
	sale = formatPrice(b.SalePrice())
	if !b.HasDiscount() {
		return sale, "", ""
	}
	return sale, formatPrice(b.Price), fmt.Sprintf("-%d%%", b.PercentOff())
}

// stockLabel describes availability.
func stockLabel(stock int) string {
	switch {
	case stock <= 0:
		return "sold out"
	case stock < 10:
		return fmt.Sprintf("only %d left", stock)
	default:
		return fmt.Sprintf("%d in stock", stock)
	}
}

// shelfLabel names a book's listing state.
func shelfLabel(status int) string {
	if status == api.BookOnShelf {
		return "on_shelf"
	}
	return "off_shelf"
}

// roleLabel names a user's role.
func roleLabel(isAdmin bool) string {
	return ternary(isAdmin, "admin", "customer")
}

// pageLabel renders "page 2/5 · 43 total".
func pageLabel(page, pages, total int) string {
	if pages < 1 {
		pages = 1
	}
	return fmt.Sprintf("page %d/%d · %d total", page, pages, total)
}

// shortDate trims a server timestamp to its date, tolerating the formats the
// backend has used.
func shortDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "-"
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if len(raw) >= 10 {
		return raw[:10]
	}
	return raw
}

// humanizeDuration renders a short age like "12s" or "3m".
func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
