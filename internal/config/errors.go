package config

import (
	"fmt"
	"strings"
)

// Kind classifies a configuration violation
type Kind string

const (
	// KindParse indicates malformed document syntax
	KindParse Kind = "parse"
	// KindSchema indicates an unknown key, a wrong type or a missing
	// required field
	KindSchema Kind = "schema"
	// KindRange indicates a numeric or enumerated value outside its legal set
	KindRange Kind = "range"
	// KindConsistency indicates a violated cross-field invariant
	KindConsistency Kind = "consistency"
)

// Violation describes a single constraint failure at a dotted field path
type Violation struct {
	Kind    Kind
	Field   string
	Message string
}

func (v Violation) Error() string {
	if v.Field == "" {
		return fmt.Sprintf("%s: %s", v.Kind, v.Message)
	}
	return fmt.Sprintf("%s: %s: %s", v.Kind, v.Field, v.Message)
}

// Error aggregates every violation found while loading a document. Loading
// never proceeds with a partially valid configuration; the caller gets the
// full list and must abort.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	switch len(e.Violations) {
	case 0:
		return "config: invalid configuration"
	case 1:
		return "config: " + e.Violations[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "config: %d violations:", len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  ")
		b.WriteString(v.Error())
	}
	return b.String()
}

// HasKind reports whether any violation is of the given kind
func (e *Error) HasKind(kind Kind) bool {
	for _, v := range e.Violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

// violations accumulates constraint failures during a validation pass
type violations struct {
	list []Violation
}

func (v *violations) add(kind Kind, field, format string, args ...any) {
	v.list = append(v.list, Violation{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}
