package documents

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Status is the processing state of a document.
type Status string

const (
	StatusUploaded           Status = "uploaded"
	StatusProcessing         Status = "processing"
	StatusOCRCompleted       Status = "ocr_completed"
	StatusParsed             Status = "parsed"
	StatusTransactionCreated Status = "transaction_created"
	StatusFailed             Status = "failed"
)

// progression lists the non-terminal statuses in pipeline order.
var progression = []Status{
	StatusUploaded,
	StatusProcessing,
	StatusOCRCompleted,
	StatusParsed,
	StatusTransactionCreated,
}

// Statuses returns every valid status.
func Statuses() []Status {
	return append(slices.Clone(progression), StatusFailed)
}

// Rank returns the position of s in the pipeline order, or -1 for failed
// and unknown values.
func (s Status) Rank() int {
	return slices.Index(progression, s)
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusFailed || s.Rank() >= 0
}

// UnmarshalJSON validates that the decoded string is a known status.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Status(raw)
	if !v.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	*s = v
	return nil
}

// Resolve decides the status a document moves to when an update requests
// requested while it is at current. Status never regresses: a lower request
// keeps current. Finalized documents reject every update, failed documents
// accept only further error records, and transaction_created is reserved for
// the external ledger procedure.
func Resolve(current, requested Status) (Status, error) {
	if !requested.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, requested)
	}

	switch {
	case current == StatusTransactionCreated:
		return "", ErrFinalized
	case requested == StatusTransactionCreated:
		return "", fmt.Errorf("%w: %s is set by the ledger procedure", ErrInvalidStatus, requested)
	case current == StatusFailed:
		if requested != StatusFailed {
			return "", fmt.Errorf("%w: cannot move to %s", ErrTerminalStatus, requested)
		}
		return StatusFailed, nil
	case requested == StatusFailed:
		return StatusFailed, nil
	case requested.Rank() < current.Rank():
		return current, nil
	default:
		return requested, nil
	}
}
