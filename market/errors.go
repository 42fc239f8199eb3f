package market

import "fmt"

// MalformedDataError reports invalid input data: missing fields,
// non-monotonic timestamps, or non-finite numeric values. Fatal at load
// time.
type MalformedDataError struct {
	Kind   string // "price" or "trade"
	Row    int    // zero-based record index, -1 if not row specific
	Reason string
}

func (e *MalformedDataError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("market: malformed %s data: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("market: malformed %s data at row %d: %s", e.Kind, e.Row, e.Reason)
}

func malformed(kind string, row int, format string, args ...any) error {
	return &MalformedDataError{Kind: kind, Row: row, Reason: fmt.Sprintf(format, args...)}
}
