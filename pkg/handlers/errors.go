package handlers

// Coder is implemented by errors that carry a machine-readable code.
type Coder interface {
	Code() string
}

// CodedError is a sentinel error with a stable code for API responses.
// Domain packages declare them as package variables and wrap causes with
// fmt.Errorf("%w: %w", ErrX, cause) so errors.Is and errors.As both work.
type CodedError struct {
	code    string
	message string
}

// NewCodedError creates a CodedError.
func NewCodedError(code, message string) *CodedError {
	return &CodedError{code: code, message: message}
}

func (e *CodedError) Error() string {
	return e.message
}

// Code returns the machine-readable code.
func (e *CodedError) Code() string {
	return e.code
}
