package validate

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trackerzenith/docpipe/internal/parse"
)

type check struct {
	reasons  []Reason
	critical bool
}

func (c *check) fail(code Code, format string, args ...any) {
	c.reasons = append(c.reasons, Reason{Code: code, Msg: fmt.Sprintf(format, args...)})
}

func (c *check) failCritical(code Code, format string, args ...any) {
	c.fail(code, format, args...)
	c.critical = true
}

// Confidence is the mean of the merchant, date and total confidences,
// rounded to four places.
func Confidence(f parse.Fields) float64 {
	sum := decimal.NewFromFloat(f.Merchant.Confidence).
		Add(decimal.NewFromFloat(f.Date.Confidence)).
		Add(decimal.NewFromFloat(f.Total.Confidence))
	mean, _ := sum.Div(decimal.NewFromInt(3)).Round(4).Float64()
	return mean
}

// hardRules applies every deterministic rule to f in a fixed order.
func (v *validator) hardRules(f parse.Fields, items []parse.LineItem, currency string, duplicates int) *check {
	c := &check{}

	switch {
	case !f.Merchant.Present():
		c.fail(CodeMissingField, "merchant is missing")
	case strings.TrimSpace(*f.Merchant.Value) == "":
		c.fail(CodeEmptyField, "merchant is empty")
	}
	if !f.Total.Present() {
		c.fail(CodeMissingField, "total is missing")
	}
	switch {
	case !f.Date.Present():
		c.fail(CodeMissingField, "date is missing")
	case strings.TrimSpace(*f.Date.Value) == "":
		c.fail(CodeEmptyField, "date is empty")
	default:
		v.dateRules(c, strings.TrimSpace(*f.Date.Value))
	}

	if f.Total.Present() {
		total := decimal.NewFromFloat(*f.Total.Value)
		if !total.IsPositive() {
			c.failCritical(CodeInvalidTotal, "total must be positive, got %s", total)
		}
		if limit := decimal.NewFromFloat(v.cfg.MaxTotal); total.GreaterThanOrEqual(limit) {
			c.fail(CodeTotalTooHigh, "total %s is at or above the %s limit", total, limit)
		}
	}

	if expected, bad := parse.TotalsMismatch(f.Subtotal.Value, f.Tax.Value, f.Total.Value, v.cfg.TotalsTolerance); bad {
		c.fail(CodeMathError, "subtotal plus tax is %s but total is %s",
			expected.StringFixed(2), parse.Amount(f.Total.Value).StringFixed(2))
	}

	if len(items) > 0 && f.Subtotal.Present() {
		sum := itemsTotal(items)
		subtotal := decimal.NewFromFloat(*f.Subtotal.Value)
		if sum.Sub(subtotal).Abs().GreaterThan(decimal.NewFromFloat(v.cfg.TotalsTolerance)) {
			c.fail(CodeItemsMismatch, "items add up to %s but subtotal is %s",
				sum.StringFixed(2), subtotal.StringFixed(2))
		}
	}

	if !slices.Contains(v.cfg.Currencies, currency) {
		c.fail(CodeUnsupportedCurrency, "currency %s is not supported, expected one of %s",
			currency, strings.Join(v.cfg.Currencies, ", "))
	}

	if duplicates > 0 {
		msg := "%d other document(s) carry the same merchant, date and total"
		if v.cfg.StrictDuplicates {
			c.failCritical(CodePossibleDuplicate, msg, duplicates)
		} else {
			c.fail(CodePossibleDuplicate, msg, duplicates)
		}
	}

	return c
}

func (v *validator) dateRules(c *check, raw string) {
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		c.fail(CodeInvalidDateFormat, "date %q is not in YYYY-MM-DD format", raw)
		return
	}

	now := v.cfg.Now()
	today, _ := time.Parse(time.DateOnly, now.Format(time.DateOnly))
	if date.After(today) {
		c.fail(CodeFutureDate, "date %s is in the future", raw)
	}
	if oldest := today.AddDate(-v.cfg.MaxAgeYears, 0, 0); date.Before(oldest) {
		c.fail(CodeDateTooOld, "date %s is more than %d years old", raw, v.cfg.MaxAgeYears)
	}
}

// itemsTotal sums item amounts, using qty times unit price when an amount is missing.
func itemsTotal(items []parse.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		switch {
		case item.Amount != nil:
			sum = sum.Add(decimal.NewFromFloat(*item.Amount))
		case item.UnitPrice != nil:
			sum = sum.Add(decimal.NewFromFloat(*item.UnitPrice).Mul(decimal.NewFromFloat(item.Qty)))
		}
	}
	return sum
}

// derive picks the status: critical failures reject, any other reason
// needs review, and a clean draft is approved.
func derive(c *check) Status {
	switch {
	case c.critical:
		return StatusRejected
	case len(c.reasons) > 0:
		return StatusNeedsReview
	default:
		return StatusApproved
	}
}
