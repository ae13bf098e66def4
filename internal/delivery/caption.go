package delivery

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCaption derives a presentable caption from the artifact filename
// when the dispatch request does not carry one:
// "catalogo-productos-20250610.pdf" becomes "Catalogo Productos".
func DefaultCaption(filename string) string {
	base := strings.TrimSuffix(strings.TrimSpace(filename), ".pdf")
	if base == "" {
		return "Documento"
	}

	words := strings.Split(base, "-")
	kept := words[:0]
	for _, w := range words {
		if w == "" || isDigits(w) {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return "Documento"
	}

	c := cases.Title(language.Und)
	return c.String(strings.Join(kept, " "))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
