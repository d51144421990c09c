package logger

// ErrorEntry exposes errorEntry fields for black-box tests.
type ErrorEntry = errorEntry

// Message returns the entry's message.
func (e ErrorEntry) Message() string { return e.message }

var (
	CollectErrorEntries = collectErrorEntries
	FormatErrorEntries  = formatErrorEntries
)
