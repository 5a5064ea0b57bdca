package domain

import "strings"

// Mode é o modo de execução da aplicação hospedeira.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// ParseMode aceita "production" ou "prod"; qualquer outro valor é desenvolvimento.
func ParseMode(raw string) Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return ModeProduction
	default:
		return ModeDevelopment
	}
}

func (m Mode) IsProduction() bool {
	return m == ModeProduction
}

// Guard identifica uma modificação passiva do ambiente.
type Guard string

const (
	GuardInspection  Guard = "inspection"
	GuardContextMenu Guard = "context-menu"
	GuardConsole     Guard = "console"
	GuardFetch       Guard = "fetch"
	GuardFraming     Guard = "framing"
	GuardSourceView  Guard = "source-view"
	GuardEvalAudit   Guard = "eval-audit"
	GuardGlobals     Guard = "globals"
)

// InstallOrder lista os guards na ordem de instalação. GuardGlobals fica por
// último porque remove globais que o framework lê durante a inicialização.
var InstallOrder = []Guard{
	GuardInspection,
	GuardContextMenu,
	GuardConsole,
	GuardFetch,
	GuardFraming,
	GuardSourceView,
	GuardEvalAudit,
	GuardGlobals,
}

// GuardSet liga ou desliga guards individualmente. Guards ausentes do mapa
// ficam ligados.
type GuardSet map[Guard]bool

func (s GuardSet) Enabled(g Guard) bool {
	enabled, ok := s[g]
	return !ok || enabled
}

// GuardStatus é o resultado da instalação de um guard.
type GuardStatus string

const (
	GuardInstalled GuardStatus = "installed"
	GuardSkipped   GuardStatus = "skipped"
	GuardDisabled  GuardStatus = "disabled"
	GuardFailed    GuardStatus = "failed"
)

type GuardReport struct {
	Guard  Guard
	Status GuardStatus
	Reason string
}

// KeyStroke é um evento de teclado já normalizado pelo adaptador.
type KeyStroke struct {
	Key   string
	Ctrl  bool
	Shift bool
	Alt   bool
	Meta  bool
}

// IsInspectionShortcut reconhece atalhos que abrem ferramentas de inspeção ou
// o código-fonte da página.
func IsInspectionShortcut(k KeyStroke) bool {
	if k.Key == "F12" {
		return true
	}
	key := strings.ToUpper(k.Key)
	switch {
	case k.Ctrl && k.Shift && (key == "I" || key == "J" || key == "C"):
		return true
	case k.Meta && k.Alt && (key == "I" || key == "J" || key == "C"):
		return true
	}
	return IsViewSourceShortcut(k)
}

// IsViewSourceShortcut reconhece Ctrl+U (Cmd+U no macOS).
func IsViewSourceShortcut(k KeyStroke) bool {
	return (k.Ctrl || k.Meta) && strings.EqualFold(k.Key, "U")
}

// ExtensionSchemes são os prefixos de origem de extensões de navegador.
var ExtensionSchemes = []string{
	"chrome-extension://",
	"moz-extension://",
	"webkit-extension://",
	"ms-browser-extension://",
	"safari-web-extension://",
}

// IsExtensionTarget indica se o alvo de uma requisição aponta para uma extensão.
func IsExtensionTarget(target string) bool {
	lowered := strings.ToLower(target)
	for _, scheme := range ExtensionSchemes {
		if strings.Contains(lowered, scheme) {
			return true
		}
	}
	return false
}

// DebugGlobals são ganchos de depuração removidos do namespace global.
var DebugGlobals = []string{
	"React",
	"ReactDOM",
	"__REACT_DEVTOOLS_GLOBAL_HOOK__",
	"__VUE_DEVTOOLS_GLOBAL_HOOK__",
	"__REDUX_DEVTOOLS_EXTENSION__",
}

// LockedGlobals são fixados como undefined e somente leitura.
var LockedGlobals = []string{"chrome", "safari"}

const (
	OpaqueFunctionSource = "function () { [native code] }"
	ViewSourceProtocol   = "view-source:"
	BlankPage            = "about:blank"
	SourceAccessMessage  = "Source code viewing is restricted for this application."
)
