package diag

import "fmt"

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Path     string // IR statement path; empty for whole-definition findings
}

func New(sev Severity, code Code, path, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Path:     path,
		Message:  msg,
	}
}

func NewError(code Code, path, msg string) Diagnostic {
	return New(SevError, code, path, msg)
}

// String renders "ERROR CFA1001 at seq[1]/while: message".
func (d Diagnostic) String() string {
	where := ""
	if d.Path != "" {
		where = " at " + d.Path
	}
	return fmt.Sprintf("%s %s%s: %s", d.Severity, d.Code.ID(), where, d.Message)
}
