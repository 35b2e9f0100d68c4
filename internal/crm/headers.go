package crm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	fieldCNPJ        = "cnpj"
	fieldNome        = "nome"
	fieldResponsavel = "responsavel"
	fieldSegmento    = "segmento"
	fieldCluster     = "cluster"
	fieldStatusConta = "status_conta"
	fieldAtividade   = "atividade"
	fieldTelefone    = "telefone"
)

// aliases maps normalized export headers to account fields.
var aliases = map[string]string{
	"cnpj":              fieldCNPJ,
	"cnpj cliente":      fieldCNPJ,
	"documento":         fieldCNPJ,
	"nome":              fieldNome,
	"task name":         fieldNome,
	"cliente":           fieldNome,
	"razao social":      fieldNome,
	"responsavel":       fieldResponsavel,
	"assignee":          fieldResponsavel,
	"segmento":          fieldSegmento,
	"cluster":           fieldCluster,
	"status":            fieldStatusConta,
	"status conta":      fieldStatusConta,
	"status da conta":   fieldStatusConta,
	"atividade":         fieldAtividade,
	"ramo de atividade": fieldAtividade,
	"telefone":          fieldTelefone,
	"phone":             fieldTelefone,
	"celular":           fieldTelefone,
}

// mapHeaders returns field -> original header. The first header that
// resolves to a field wins.
func mapHeaders(headers []string) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		field, ok := aliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, taken := out[field]; !taken {
			out[field] = h
		}
	}
	return out
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeHeader lowercases, drops accents and folds separators to spaces,
// so "Responsável" and "status_conta" both match.
func normalizeHeader(h string) string {
	s, _, err := transform.String(stripMarks, h)
	if err != nil {
		s = h
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ", "\ufeff", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
