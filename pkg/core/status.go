package core

// ErrorCategory classifies a failure so transports can map it to a response.
type ErrorCategory int

const (
	ErrCategoryNone     ErrorCategory = iota // No error
	ErrCategoryParse                         // Hierarchy dump unreadable or without a root element
	ErrCategoryNotFound                      // No element contains the requested point
	ErrCategoryInput                         // Missing, non-numeric or negative coordinates
	ErrCategoryDevice                        // adb missing, device offline, dump or screenshot failed
	ErrCategoryConfig                        // Invalid configuration
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryParse:
		return "parse"
	case ErrCategoryNotFound:
		return "not_found"
	case ErrCategoryInput:
		return "input"
	case ErrCategoryDevice:
		return "device"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}
