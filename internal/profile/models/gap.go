package models

// Severity ranks a Gap. Only SeverityError blocks generation.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Gap is a compliance or completeness finding. Field and Rule are set for
// findings produced locally; generator gaps usually carry only a message.
type Gap struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Field    string   `json:"field,omitempty"`
	Rule     string   `json:"rule,omitempty"`
	DocType  DocType  `json:"doc_type,omitempty"`
}

// HasBlocking reports whether any gap has error severity.
func HasBlocking(gaps []Gap) bool {
	for _, g := range gaps {
		if g.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Blocking returns the error-severity gaps in their original order.
func Blocking(gaps []Gap) []Gap {
	var out []Gap
	for _, g := range gaps {
		if g.Severity == SeverityError {
			out = append(out, g)
		}
	}
	return out
}
