// Package templates renders documentation page templates with a typed
// placeholder set. Placeholders use {{name}} syntax and are validated
// against the known variable list, so a typo in a user-edited template
// fails loudly instead of passing through to the generated page.
package templates

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/docfold/docfold-cli/internal/core/domain"
)

// Template names.
const (
	TemplateDocPage   = "doc_page"
	TemplateChangelog = "changelog_entry"
)

// Placeholder names accepted in any template.
const (
	VarServiceName      = "service_name"
	VarSummary          = "summary"
	VarFilesChanged     = "files_changed"
	VarAdditions        = "additions"
	VarDeletions        = "deletions"
	VarDate             = "date"
	VarSourceIdentifier = "source_identifier"
)

// knownVars is the full placeholder vocabulary.
var knownVars = map[string]bool{
	VarServiceName:      true,
	VarSummary:          true,
	VarFilesChanged:     true,
	VarAdditions:        true,
	VarDeletions:        true,
	VarDate:             true,
	VarSourceIdentifier: true,
}

var placeholderPattern = regexp.MustCompile(`\{\{([a-z_]+)\}\}`)

// Vars holds the values substituted into a template.
type Vars map[string]string

// Validate checks that every placeholder in the template body belongs
// to the known vocabulary. Returns domain.ErrInvalidInput naming the
// offending placeholders otherwise.
func Validate(body string) error {
	var unknown []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(body, -1) {
		if !knownVars[match[1]] {
			unknown = append(unknown, match[1])
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	sort.Strings(unknown)
	return fmt.Errorf("%w: unknown template placeholders: %s",
		domain.ErrInvalidInput, strings.Join(dedupe(unknown), ", "))
}

// Render substitutes vars into the template body. The body must pass
// Validate; placeholders without a supplied value render as empty.
func Render(body string, vars Vars) (string, error) {
	if err := Validate(body); err != nil {
		return "", err
	}

	return placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		return vars[name]
	}), nil
}

// KnownPlaceholders returns the sorted placeholder vocabulary.
func KnownPlaceholders() []string {
	names := make([]string, 0, len(knownVars))
	for name := range knownVars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
