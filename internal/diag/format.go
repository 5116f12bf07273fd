package diag

import (
	"strconv"
	"strings"
)

type formatOptions struct {
	prefix    string
	stripBase string
}

// FormatOption configures Format.
type FormatOption func(*formatOptions)

// WithPrefix replaces the default "./" file prefix.
func WithPrefix(prefix string) FormatOption {
	return func(o *formatOptions) { o.prefix = prefix }
}

// StripBase removes base from the start of the file path before the prefix
// is applied.
func StripBase(base string) FormatOption {
	return func(o *formatOptions) { o.stripBase = base }
}

// Format renders d as "<prefix><file>[:<line>[:<column>]]: <severity>: <message>".
func Format(d Diagnostic, opts ...FormatOption) string {
	o := formatOptions{prefix: "./"}
	for _, opt := range opts {
		opt(&o)
	}

	loc := d.Common()
	file := loc.File
	if o.stripBase != "" && strings.HasPrefix(file, o.stripBase) {
		file = strings.TrimLeft(file[len(o.stripBase):], "/")
	}

	var b strings.Builder
	b.WriteString(o.prefix)
	b.WriteString(file)
	if loc.Line > 0 {
		b.WriteString(":")
		b.WriteString(strconv.Itoa(loc.Line))
		if loc.Column > 0 {
			b.WriteString(":")
			b.WriteString(strconv.Itoa(loc.Column))
		}
	}
	b.WriteString(": ")
	b.WriteString(string(loc.Severity))
	b.WriteString(": ")
	b.WriteString(loc.Message)
	return b.String()
}
