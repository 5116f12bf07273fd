package library

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// DuplicatePolicy decides what a name collision across modules means. A
// non-nil error aborts the run.
type DuplicatePolicy func(dups Duplicates, logger *log.Logger) error

// Policy names accepted by PolicyByName.
const (
	PolicyStrict = "strict"
	PolicyWarn   = "warn"
	PolicyIgnore = "ignore"
)

// PolicyByName returns the built-in policy with the given name.
func PolicyByName(name string) (DuplicatePolicy, error) {
	switch name {
	case PolicyStrict:
		return StrictDuplicates, nil
	case PolicyWarn, "":
		return WarnDuplicates, nil
	case PolicyIgnore:
		return IgnoreDuplicates, nil
	}
	return nil, fmt.Errorf("unknown duplicate policy %q (want %s, %s or %s)", name, PolicyStrict, PolicyWarn, PolicyIgnore)
}

// StrictDuplicates rejects any collision.
func StrictDuplicates(dups Duplicates, logger *log.Logger) error {
	if len(dups) == 0 {
		return nil
	}
	return &DuplicateError{Duplicates: dups}
}

// WarnDuplicates logs each collision and continues.
func WarnDuplicates(dups Duplicates, logger *log.Logger) error {
	for _, name := range dups.Names() {
		var where []string
		for _, e := range dups[name] {
			where = append(where, occurrence(e))
		}
		logger.Warn("duplicate declaration name", "name", name, "occurrences", strings.Join(where, ", "))
	}
	return nil
}

// IgnoreDuplicates accepts every collision silently.
func IgnoreDuplicates(Duplicates, *log.Logger) error {
	return nil
}

// DuplicateError lists every colliding name with its occurrences.
type DuplicateError struct {
	Duplicates Duplicates
}

func (e *DuplicateError) Error() string {
	var b strings.Builder
	names := e.Duplicates.Names()
	fmt.Fprintf(&b, "%d declaration name(s) exported by more than one module:\n", len(names))
	for _, name := range names {
		fmt.Fprintf(&b, "  %s\n", name)
		for _, entry := range e.Duplicates[name] {
			fmt.Fprintf(&b, "    - %s\n", occurrence(entry))
		}
	}
	b.WriteString("Rename all but one of them, or mark the extras with @nodocs.")
	return b.String()
}

func occurrence(e DuplicateEntry) string {
	if e.Declaration.SourceLine > 0 {
		return fmt.Sprintf("%s:%d (%s)", e.Module, e.Declaration.SourceLine, e.Declaration.Kind)
	}
	return fmt.Sprintf("%s (%s)", e.Module, e.Declaration.Kind)
}
