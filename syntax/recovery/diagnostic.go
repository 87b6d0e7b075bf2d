package recovery

import "fmt"

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	}
	return "unknown"
}

type Code string

const (
	CodeRecoveryAttempted Code = "recovery_attempted"
	CodeMissingDelimiter  Code = "missing_delimiter"
	CodeUnrecoverable     Code = "unrecoverable"
	CodeExpectedToken     Code = "expected_token"
	CodeUnexpectedToken   Code = "unexpected_token"
	CodeDuplicateElse     Code = "duplicate_else"
	CodeInvalidToken      Code = "invalid_token"
)

// Context locates a diagnostic inside the production that was active when
// it was raised.
type Context struct {
	Kind         Kind
	NestingLevel int
}

type Diagnostic struct {
	Code     Code
	Severity Severity
	Token    int // index of the token the diagnostic refers to
	Message  string
	Context  *Context

	// Skip is the number of tokens a recovery jumped over.
	Skip int
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s: %s", d.Severity, d.Code, d.Message)
	if d.Context != nil {
		s += fmt.Sprintf(" [%s depth %d]", d.Context.Kind, d.Context.NestingLevel)
	}
	return s
}
