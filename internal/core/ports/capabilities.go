package ports

import "github.com/JeanGrijp/cardguard/internal/core/domain"

// KeyboardEvents registra um handler de teclado; o handler devolve true para
// suprimir o efeito padrão do evento.
type KeyboardEvents interface {
	OnKeyDown(handler func(domain.KeyStroke) bool) error
}

type ContextMenuEvents interface {
	OnContextMenu(handler func() bool) error
}

// Console é o destino de logs do ambiente, com canais info/warn/error independentes.
type Console interface {
	SilenceInfo() error
}

type GlobalNamespace interface {
	Delete(name string) error
	// Lock fixa name como undefined e impede novas atribuições.
	Lock(name string) error
	ObscureFunctionSource(placeholder string) error
}

// FetchInterceptor envolve o ponto de entrada de rede; um erro do filtro
// rejeita a requisição antes do envio.
type FetchInterceptor interface {
	Intercept(filter func(target string) error) error
}

type FrameIdentity interface {
	Framed() (bool, error)
	BreakOut() error
}

type Location interface {
	Protocol() (string, error)
	Navigate(url string) error
}

type Notifier interface {
	Alert(message string) error
}

// EvalHook observa avaliação dinâmica de código sem bloqueá-la.
type EvalHook interface {
	Audit(report func(kind string)) error
}

type Markup interface {
	EscapeText(text string) (string, error)
}

// Capabilities agrupa as capacidades opcionais do ambiente hospedeiro.
// Campo nil significa capacidade ausente; o valor zero não oferece nenhuma.
type Capabilities struct {
	Keyboard    KeyboardEvents
	ContextMenu ContextMenuEvents
	Console     Console
	Globals     GlobalNamespace
	Fetch       FetchInterceptor
	Frame       FrameIdentity
	Location    Location
	Notifier    Notifier
	Eval        EvalHook
	Markup      Markup
}
