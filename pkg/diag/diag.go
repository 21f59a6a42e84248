// Package diag accumulates positioned diagnostics for one expansion.
// Validation stages record every error they find before aborting, so a user
// sees all independent problems in a single run.
package diag

import (
	"errors"
	"fmt"
	"go/token"
	"strings"
)

// ErrExpansion is wrapped by Bag.Err when the bag holds hard errors.
var ErrExpansion = errors.New("expansion failed")

// Severity distinguishes warnings from hard errors.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Diagnostic is one positioned message.
type Diagnostic struct {
	Severity Severity
	Pos      token.Position
	Message  string
	Note     string
}

func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Pos.IsValid() {
		fmt.Fprintf(&b, "%s: ", d.Pos)
	}
	fmt.Fprintf(&b, "%s: %s", d.Severity, d.Message)
	if d.Note != "" {
		fmt.Fprintf(&b, "\n\tnote: %s", d.Note)
	}
	return b.String()
}

// Bag collects diagnostics for a single expansion. The zero value is usable.
type Bag struct {
	diags  []Diagnostic
	errors int
}

// Errorf records a hard error at pos.
func (b *Bag) Errorf(pos token.Position, format string, args ...any) {
	b.diags = append(b.diags, Diagnostic{Severity: Error, Pos: pos, Message: fmt.Sprintf(format, args...)})
	b.errors++
}

// ErrorfNote records a hard error with an attached note.
func (b *Bag) ErrorfNote(pos token.Position, note, format string, args ...any) {
	b.diags = append(b.diags, Diagnostic{Severity: Error, Pos: pos, Message: fmt.Sprintf(format, args...), Note: note})
	b.errors++
}

// Warnf records a non-fatal warning at pos.
func (b *Bag) Warnf(pos token.Position, format string, args ...any) {
	b.diags = append(b.diags, Diagnostic{Severity: Warning, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any hard error has been recorded.
func (b *Bag) HasErrors() bool {
	return b.errors > 0
}

// Diagnostics returns everything recorded so far, in order.
func (b *Bag) Diagnostics() []Diagnostic {
	return b.diags
}

// Err returns nil if the bag holds no hard errors, otherwise an error
// wrapping ErrExpansion with the error count.
func (b *Bag) Err() error {
	if b.errors == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d error(s)", ErrExpansion, b.errors)
}
