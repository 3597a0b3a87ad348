// Package domain holds the small set of types shared across analysis modules.
// It has no infrastructure dependencies.
package domain

// Direction is the side of a rebalancing action.
type Direction string

const (
	// Buy increases an underweight position
	Buy Direction = "BUY"
	// Sell reduces an overweight position
	Sell Direction = "SELL"
)

// DiagnosticLevel classifies a diagnostic entry.
type DiagnosticLevel string

const (
	// DiagnosticInfo marks informational annotations (e.g. degenerate-input fallbacks)
	DiagnosticInfo DiagnosticLevel = "info"
	// DiagnosticWarning marks data-quality warnings the computation proceeded through
	DiagnosticWarning DiagnosticLevel = "warning"
)

// Diagnostic is a structured warning or annotation embedded in a result so
// that CLI and web consumers render the same information without parsing
// log output. Computation never aborts on a diagnostic.
type Diagnostic struct {
	Level   DiagnosticLevel        `json:"level"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// Warning builds a warning-level diagnostic.
func Warning(code, message string, fields map[string]interface{}) Diagnostic {
	return Diagnostic{Level: DiagnosticWarning, Code: code, Message: message, Fields: fields}
}

// Info builds an info-level diagnostic.
func Info(code, message string, fields map[string]interface{}) Diagnostic {
	return Diagnostic{Level: DiagnosticInfo, Code: code, Message: message, Fields: fields}
}
