package validate

import "github.com/trackerzenith/docpipe/internal/parse"

// Status is the outcome of validation.
type Status string

const (
	StatusApproved    Status = "approved"
	StatusNeedsReview Status = "needs_review"
	StatusRejected    Status = "rejected"
)

// Code identifies a validation rule.
type Code string

const (
	CodeMissingField        Code = "MISSING_FIELD"
	CodeEmptyField          Code = "EMPTY_FIELD"
	CodeInvalidTotal        Code = "INVALID_TOTAL"
	CodeTotalTooHigh        Code = "TOTAL_TOO_HIGH"
	CodeMathError           Code = "MATH_ERROR"
	CodeItemsMismatch       Code = "ITEMS_MISMATCH"
	CodeInvalidDateFormat   Code = "INVALID_DATE_FORMAT"
	CodeFutureDate          Code = "FUTURE_DATE"
	CodeDateTooOld          Code = "DATE_TOO_OLD"
	CodeUnsupportedCurrency Code = "UNSUPPORTED_CURRENCY"
	CodePossibleDuplicate   Code = "POSSIBLE_DUPLICATE"
	CodeLowConfidence       Code = "LOW_CONFIDENCE"
	CodeIncoherent          Code = "INCOHERENT"
)

// Reason explains one failed rule.
type Reason struct {
	Code Code   `json:"code"`
	Msg  string `json:"msg"`
}

// Badge labels shown next to a verdict.
const (
	BadgeAutoApproved = "Auto-Approved"
	BadgeNeedsReview  = "Needs Review"
	BadgeRejected     = "Rejected"

	BadgeHigh   = "High"
	BadgeMedium = "Medium"
	BadgeLow    = "Low"
)

// Verdict is the result of validating one draft.
type Verdict struct {
	DocumentID     int64             `json:"document_id"`
	Status         Status            `json:"status"`
	Reasons        []Reason          `json:"reasons"`
	Confidence     float64           `json:"confidence"`
	Badges         map[string]string `json:"badges"`
	NormalizedJSON Normalized        `json:"normalized_json"`
}

// Normalized is the flat payload the writer stores.
type Normalized struct {
	DocumentID               int64            `json:"document_id"`
	Merchant                 *string          `json:"merchant"`
	Date                     *string          `json:"date"`
	Total                    *float64         `json:"total"`
	Subtotal                 *float64         `json:"subtotal"`
	Tax                      *float64         `json:"tax"`
	Currency                 string           `json:"currency"`
	TransactionType          string           `json:"transaction_type"`
	SuggestedCategoryID      *int64           `json:"suggested_category_id"`
	SuggestedCategoryType    *string          `json:"suggested_category_type"`
	SuggestedPaymentMethodID *int64           `json:"suggested_payment_method_id"`
	PaymentMethod            *string          `json:"payment_method"`
	Items                    []parse.LineItem `json:"items"`
	Signature                string           `json:"signature"`
	ParserModel              string           `json:"parser_model"`
	ValidationStatus         Status           `json:"validation_status"`
	Confidence               float64          `json:"confidence"`
}

func statusBadge(s Status) string {
	switch s {
	case StatusApproved:
		return BadgeAutoApproved
	case StatusRejected:
		return BadgeRejected
	default:
		return BadgeNeedsReview
	}
}

func confidenceBadge(c float64) string {
	switch {
	case c >= 0.9:
		return BadgeHigh
	case c >= 0.7:
		return BadgeMedium
	default:
		return BadgeLow
	}
}
