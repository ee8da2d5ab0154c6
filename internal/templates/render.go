// Package templates implements the {{variable}} placeholder syntax used by
// message templates. Substitution is literal: values are stringified and
// inserted verbatim, unresolved placeholders are left in place, and no
// escaping of any kind is performed.
package templates

import (
	"fmt"
	"strings"
)

// Render substitutes every {{key}} occurrence in text with the stringified
// value from vars. Matching is case-sensitive; keys absent from vars leave
// their placeholder untouched.
func Render(text string, vars map[string]any) string {
	if text == "" || len(vars) == 0 {
		return text
	}

	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{{"+key+"}}", stringify(value))
	}

	return strings.NewReplacer(pairs...).Replace(text)
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
