package parse

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Field is a parsed value and the model's confidence in it. A nil Value
// means the document did not show it.
type Field[T any] struct {
	Value      *T      `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Present reports whether the field carries a value.
func (f Field[T]) Present() bool {
	return f.Value != nil
}

// OptionID is a category or payment method id. Models sometimes quote ids,
// so both numbers and numeric strings decode.
type OptionID int64

func (id *OptionID) UnmarshalJSON(data []byte) error {
	n, err := strconv.ParseInt(strings.Trim(string(data), `"`), 10, 64)
	if err != nil {
		return fmt.Errorf("option id %s: %w", data, err)
	}
	*id = OptionID(n)
	return nil
}

// Fields are the structured values read from one receipt.
type Fields struct {
	Merchant                 Field[string]   `json:"merchant"`
	Date                     Field[string]   `json:"date"`
	Total                    Field[float64]  `json:"total"`
	Subtotal                 Field[float64]  `json:"subtotal"`
	Tax                      Field[float64]  `json:"tax"`
	Currency                 Field[string]   `json:"currency"`
	TransactionType          Field[string]   `json:"transaction_type"`
	SuggestedCategoryID      Field[OptionID] `json:"suggested_category_id"`
	SuggestedPaymentMethodID Field[OptionID] `json:"suggested_payment_method_id"`
	PaymentMethod            Field[string]   `json:"payment_method"`
}

// LineItem is one purchased item.
type LineItem struct {
	Name       string   `json:"name"`
	Qty        float64  `json:"qty"`
	UnitPrice  *float64 `json:"unit_price"`
	Amount     *float64 `json:"amount"`
	Confidence float64  `json:"confidence"`
}

// Transaction types.
const (
	TypeExpense = "expense"
	TypeIncome  = "income"
)

// Signature identifies a transaction across uploads:
// sha256 of "merchant|date|total", hex encoded.
func Signature(merchant, date *string, total *float64) string {
	m, d, t := "unknown", "unknown", "0"
	if merchant != nil && strings.TrimSpace(*merchant) != "" {
		m = strings.TrimSpace(*merchant)
	}
	if date != nil && strings.TrimSpace(*date) != "" {
		d = strings.TrimSpace(*date)
	}
	if total != nil {
		t = strconv.FormatFloat(*total, 'f', -1, 64)
	}

	sum := sha256.Sum256([]byte(m + "|" + d + "|" + t))
	return hex.EncodeToString(sum[:])
}

// TotalsMismatch compares subtotal plus tax against total. A missing
// subtotal or tax counts as zero; when both are missing, or total is, there
// is nothing to compare. It returns the expected total and whether the
// difference exceeds tolerance.
func TotalsMismatch(subtotal, tax, total *float64, tolerance float64) (decimal.Decimal, bool) {
	if total == nil || (subtotal == nil && tax == nil) {
		return decimal.Zero, false
	}

	expected := Amount(subtotal).Add(Amount(tax))
	diff := expected.Sub(decimal.NewFromFloat(*total)).Abs()
	return expected, diff.GreaterThan(decimal.NewFromFloat(tolerance))
}

// Amount converts an optional amount to a decimal, treating nil as zero.
func Amount(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}

func clamp(c float64) float64 {
	return min(max(c, 0), 1)
}
