// Package headless oferece as capacidades disponíveis num processo sem navegador.
package headless

import (
	"html"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JeanGrijp/cardguard/internal/core/ports"
)

// Capabilities devolve o console ligado ao nível do logger do processo e o
// escape de markup. Teclado, menu de contexto, globais, fetch e frames não
// existem fora do navegador.
func Capabilities(level zap.AtomicLevel) ports.Capabilities {
	return ports.Capabilities{
		Console: &Console{level: level},
		Markup:  Markup{},
	}
}

// Console silencia o canal info elevando o nível mínimo do logger para warn.
type Console struct {
	level zap.AtomicLevel
}

var _ ports.Console = (*Console)(nil)

func NewConsole(level zap.AtomicLevel) *Console {
	return &Console{level: level}
}

func (c *Console) SilenceInfo() error {
	if c.level.Level() < zapcore.WarnLevel {
		c.level.SetLevel(zapcore.WarnLevel)
	}
	return nil
}

// Markup escapa texto com as entidades HTML padrão.
type Markup struct{}

var _ ports.Markup = Markup{}

func (Markup) EscapeText(text string) (string, error) {
	return html.EscapeString(text), nil
}
