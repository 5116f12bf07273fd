// Package tsdoc parses JSDoc/TSDoc comment blocks into structured tags.
package tsdoc

import (
	"strings"
	"unicode"
)

// Comment is the structured content of one doc comment.
type Comment struct {
	Description       string
	Params            map[string]string
	Returns           string
	Throws            []Throw
	Since             string
	Examples          []string
	Deprecated        bool
	DeprecatedMessage string
	See               []string

	// Module marks an explicit module-level comment.
	Module bool

	// NoDocs suppresses the commented item from generated documentation.
	NoDocs bool
}

// Throw is one @throws entry.
type Throw struct {
	Type        string
	Description string
}

type block struct {
	tag   string
	lines []string
}

// Parse parses raw comment text, including its delimiters. It returns nil
// when raw is not a doc comment.
func Parse(raw string) *Comment {
	lines, ok := Lines(raw)
	if !ok {
		return nil
	}

	c := &Comment{}
	var desc []string
	var blocks []*block
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if tag, rest, ok := tagLine(trimmed); ok {
			blocks = append(blocks, &block{tag: tag, lines: []string{rest}})
			continue
		}
		if len(blocks) == 0 {
			desc = append(desc, line)
			continue
		}
		last := blocks[len(blocks)-1]
		last.lines = append(last.lines, line)
	}
	c.Description = strings.TrimSpace(strings.Join(desc, "\n"))

	for _, b := range blocks {
		text := strings.TrimSpace(strings.Join(b.lines, "\n"))
		switch b.tag {
		case "param", "arg", "argument":
			name, description := parseParam(text)
			if name == "" {
				continue
			}
			if c.Params == nil {
				c.Params = make(map[string]string)
			}
			c.Params[name] = description
		case "returns", "return":
			_, c.Returns = splitType(text)
		case "throws", "throw", "exception":
			typ, description := splitType(text)
			c.Throws = append(c.Throws, Throw{Type: typ, Description: description})
		case "since":
			c.Since = text
		case "example":
			c.Examples = append(c.Examples, text)
		case "deprecated":
			c.Deprecated = true
			c.DeprecatedMessage = text
		case "see":
			if text != "" {
				c.See = append(c.See, text)
			}
		case "module", "packageDocumentation", "file", "fileoverview":
			c.Module = true
		case "nodocs":
			c.NoDocs = true
		}
	}
	return c
}

// Lines strips the comment delimiters and leading asterisks of raw and
// returns its content lines with leading and trailing blank lines removed.
func Lines(raw string) ([]string, bool) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/**") || !strings.HasSuffix(raw, "*/") || len(raw) < 5 {
		return nil, false
	}
	body := raw[3 : len(raw)-2]

	var lines []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, " \t\r")
		trimmed := strings.TrimLeft(line, " \t")
		if rest, ok := strings.CutPrefix(trimmed, "*"); ok {
			line = strings.TrimPrefix(rest, " ")
		} else {
			line = trimmed
		}
		lines = append(lines, line)
	}

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, true
}

func tagLine(line string) (tag, rest string, ok bool) {
	if !strings.HasPrefix(line, "@") {
		return "", "", false
	}
	end := 1
	for end < len(line) && (unicode.IsLetter(rune(line[end])) || unicode.IsDigit(rune(line[end]))) {
		end++
	}
	if end == 1 {
		return "", "", false
	}
	return line[1:end], strings.TrimSpace(line[end:]), true
}

// splitType separates a leading {Type} from the rest of a tag's text.
func splitType(text string) (typ, rest string) {
	if !strings.HasPrefix(text, "{") {
		return "", text
	}
	depth := 0
	for i, r := range text {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(text[1:i]), strings.TrimSpace(text[i+1:])
			}
		}
	}
	return "", text
}

// parseParam handles "{type} name - desc", "[name=default] desc" and "name desc".
func parseParam(text string) (name, description string) {
	_, text = splitType(text)
	if text == "" {
		return "", ""
	}

	var rest string
	if strings.HasPrefix(text, "[") {
		end := strings.Index(text, "]")
		if end < 0 {
			return "", ""
		}
		name = text[1:end]
		if eq := strings.Index(name, "="); eq >= 0 {
			name = name[:eq]
		}
		name = strings.TrimSpace(name)
		rest = text[end+1:]
	} else {
		fields := strings.SplitN(text, " ", 2)
		name = fields[0]
		if len(fields) > 1 {
			rest = fields[1]
		}
		if i := strings.IndexByte(name, '\n'); i >= 0 {
			rest = name[i:] + " " + rest
			name = name[:i]
		}
	}

	rest = strings.TrimSpace(rest)
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "-"))
	return name, rest
}
