// Package diagnostic collects structured grammar-compile diagnostics:
// malformed regex patterns and grammar validation failures. It is a
// trimmed adaptation of the
// teacher's diagnostic package, with positions anchored to an offset
// in the offending pattern string rather than a source file, since
// the table builder has no source file to report against.
package diagnostic

import (
	"fmt"
	"strings"
)

// Severity is the severity level of a diagnostic.
type Severity uint8

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic is a single grammar-compile message.
type Diagnostic struct {
	Severity Severity
	RuleIdx  int    // index into grammar.Grammar.Rules, or -1 if not rule-specific
	Pattern  string // the offending pattern, if any
	Offset   int    // byte offset into Pattern
	Message  string
}

func (d *Diagnostic) Error() string {
	if d.Pattern == "" {
		return fmt.Sprintf("rule %d: %s: %s", d.RuleIdx, d.Severity, d.Message)
	}
	return fmt.Sprintf("rule %d: %s: %s (at offset %d in %q)", d.RuleIdx, d.Severity, d.Message, d.Offset, d.Pattern)
}

// List collects diagnostics produced while compiling a grammar.
type List struct {
	diagnostics []Diagnostic
	hasErrors   bool
}

// Add appends a diagnostic to the list.
func (l *List) Add(d Diagnostic) {
	l.diagnostics = append(l.diagnostics, d)
	if d.Severity == Error {
		l.hasErrors = true
	}
}

// AddError appends an error diagnostic for ruleIdx's pattern.
func (l *List) AddError(ruleIdx int, pattern string, offset int, message string) {
	l.Add(Diagnostic{Severity: Error, RuleIdx: ruleIdx, Pattern: pattern, Offset: offset, Message: message})
}

// AddWarning appends a warning diagnostic for ruleIdx.
func (l *List) AddWarning(ruleIdx int, message string) {
	l.Add(Diagnostic{Severity: Warning, RuleIdx: ruleIdx, Message: message})
}

// HasErrors reports whether any error-level diagnostic was added.
func (l *List) HasErrors() bool { return l.hasErrors }

// Diagnostics returns all collected diagnostics, in the order added.
func (l *List) Diagnostics() []Diagnostic { return l.diagnostics }

// Format renders every diagnostic as a human-readable, newline-joined
// report.
func (l *List) Format() string {
	if len(l.diagnostics) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, d := range l.diagnostics {
		sb.WriteString(d.Error())
		sb.WriteByte('\n')
	}
	return sb.String()
}
