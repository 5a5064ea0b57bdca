package domain

import (
	"regexp"
	"strings"
)

var (
	angleBrackets   = regexp.MustCompile(`[<>]`)
	javascriptURI   = regexp.MustCompile(`(?i)javascript:`)
	inlineHandler   = regexp.MustCompile(`(?i)on\w+=`)
	scriptSubstring = regexp.MustCompile(`(?i)script`)
)

// Sanitize remove de text os padrões mais comuns de injeção de markup.
//
// É um filtro heurístico de defesa em profundidade, não um sanitizador
// baseado em parser: cada etapa roda uma única vez sobre a saída da anterior,
// então tokens aninhados como "scrscriptipt" não são reavaliados.
func Sanitize(text string) string {
	out := angleBrackets.ReplaceAllString(text, "")
	out = javascriptURI.ReplaceAllString(out, "")
	out = inlineHandler.ReplaceAllString(out, "")
	out = scriptSubstring.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}
