package category

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Unifica variantes árabes/persas de teclado y dígitos para que la búsqueda
// encuentre lo mismo sin importar la distribución usada al escribir.
var persianReplacer = strings.NewReplacer(
	"ي", "ی", "ى", "ی", "ك", "ک", "\u200c", "",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// NormalizeText prepara un texto para comparación sin distinguir mayúsculas.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = persianReplacer.Replace(s)
	return cases.Fold().String(s)
}

// MatchText coincide cuando query aparece en el nombre o la descripción.
// Un query vacío coincide con todo.
func MatchText(query string) Predicate {
	q := NormalizeText(strings.TrimSpace(query))
	if q == "" {
		return func(*Node) bool { return true }
	}
	return func(n *Node) bool {
		if n == nil {
			return false
		}
		return strings.Contains(NormalizeText(n.Name), q) ||
			strings.Contains(NormalizeText(n.Description), q)
	}
}
