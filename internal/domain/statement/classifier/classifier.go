// Package classifier maps free-text transaction types to a movement category.
package classifier

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/FACorreiaa/yape-insights/internal/domain/statement/table"
)

// Keyword sets are checked in order: income first, then expense.
// "pago recibido" must win over the broader "pago" expense keyword.
var (
	ingresoKeywords = []string{
		"te yapearon", "recibiste", "pago recibido", "cobraste",
		"yapeo recibido", "te pagó", "abono yape",
	}
	egresoKeywords = []string{
		"yapeaste", "enviaste", "pago realizado", "pagaste", "pago",
	}
)

// Classify returns the movement category for a raw transaction type.
// Text matching neither keyword set is Otro.
func Classify(rawType string) table.Category {
	t := strings.ToLower(norm.NFC.String(rawType))
	if containsAny(t, ingresoKeywords) {
		return table.CategoryIngreso
	}
	if containsAny(t, egresoKeywords) {
		return table.CategoryEgreso
	}
	return table.CategoryOtro
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
