// Package template renders question/answer format strings against a map
// of field values. The syntax is a small mustache subset: {{Field}}
// substitution plus {{#Field}}...{{/Field}} and {{^Field}}...{{/Field}}
// conditional sections.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

//go:generate mockgen -source=render.go -destination=../mocks/template/mock_renderer.go -package=mock_template Renderer

// Renderer renders a format string against named field values.
type Renderer interface {
	Render(format string, fields map[string]string) (string, error)
}

// FieldRenderer is the default Renderer implementation.
type FieldRenderer struct{}

// NewFieldRenderer creates a FieldRenderer.
func NewFieldRenderer() *FieldRenderer {
	return &FieldRenderer{}
}

var fieldPattern = regexp.MustCompile(`\{\{([^#^/}][^}]*)\}\}`)

// Render substitutes field references and resolves conditional sections.
// A reference to a missing field renders as the empty string. A
// {{cloze:Field}} reference resolves to the "cloze:Field" entry when the
// caller provides one, falling back to the plain field value.
func (r *FieldRenderer) Render(format string, fields map[string]string) (string, error) {
	resolved, err := renderSections(format, fields)
	if err != nil {
		return "", err
	}
	return fieldPattern.ReplaceAllStringFunc(resolved, func(ref string) string {
		name := strings.TrimSpace(ref[2 : len(ref)-2])
		if value, ok := fields[name]; ok {
			return value
		}
		if rest, ok := strings.CutPrefix(name, "cloze:"); ok {
			return fields[rest]
		}
		return ""
	}), nil
}

// renderSections resolves {{#X}} and {{^X}} blocks, outermost first.
func renderSections(format string, fields map[string]string) (string, error) {
	for {
		start, name, negated := findSectionStart(format)
		if start < 0 {
			return format, nil
		}
		opening := "{{" + map[bool]string{false: "#", true: "^"}[negated] + name + "}}"
		closing := "{{/" + name + "}}"
		bodyStart := start + len(opening)
		end := strings.Index(format[bodyStart:], closing)
		if end < 0 {
			return "", fmt.Errorf("unclosed conditional section %q", name)
		}
		body := format[bodyStart : bodyStart+end]

		value := strings.TrimSpace(fields[name])
		keep := value != ""
		if negated {
			keep = !keep
		}
		replacement := ""
		if keep {
			replacement = body
		}
		format = format[:start] + replacement + format[bodyStart+end+len(closing):]
	}
}

var sectionPattern = regexp.MustCompile(`\{\{([#^])([^}]+)\}\}`)

func findSectionStart(format string) (start int, name string, negated bool) {
	loc := sectionPattern.FindStringSubmatchIndex(format)
	if loc == nil {
		return -1, "", false
	}
	return loc[0], format[loc[4]:loc[5]], format[loc[2]:loc[3]] == "^"
}

// FieldsUsed returns the distinct field names referenced by a format
// string, with any cloze: prefix stripped. Section markers count as
// references.
func FieldsUsed(format string) []string {
	seen := map[string]struct{}{}
	var names []string
	add := func(name string) {
		name = strings.TrimSpace(strings.TrimPrefix(name, "cloze:"))
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for _, match := range fieldPattern.FindAllStringSubmatch(format, -1) {
		add(match[1])
	}
	for _, match := range sectionPattern.FindAllStringSubmatch(format, -1) {
		add(match[2])
	}
	return names
}
