//go:build js && wasm

// Package browser implementa as capacidades do ambiente sobre syscall/js.
package browser

import (
	"fmt"
	"syscall/js"

	"github.com/JeanGrijp/cardguard/internal/core/domain"
	"github.com/JeanGrijp/cardguard/internal/core/ports"
)

// Capabilities sonda window e document e devolve apenas as capacidades
// presentes. Fora de uma página (por exemplo num worker) o resultado é o
// valor zero.
func Capabilities() ports.Capabilities {
	global := js.Global()
	window := global.Get("window")
	if !isObject(window) {
		return ports.Capabilities{}
	}
	document := global.Get("document")

	caps := ports.Capabilities{
		Globals: &globals{global: global, functionProto: global.Get("Function").Get("prototype")},
		Frame:   &frame{global: global},
	}
	if isObject(document) && isFunction(document.Get("addEventListener")) {
		caps.Keyboard = &keyboard{target: document}
		caps.ContextMenu = &contextMenu{target: document}
	}
	if isObject(document) && isFunction(document.Get("createElement")) {
		caps.Markup = &markup{document: document}
	}
	if c := global.Get("console"); isObject(c) {
		caps.Console = &consoleSink{value: c}
	}
	if isFunction(global.Get("fetch")) {
		caps.Fetch = &fetch{global: global}
	}
	if l := global.Get("location"); isObject(l) {
		caps.Location = &pageLocation{value: l}
	}
	if isFunction(global.Get("alert")) {
		caps.Notifier = &notifier{global: global}
	}
	if isFunction(global.Get("eval")) && isFunction(global.Get("Function")) {
		caps.Eval = &evalHook{global: global}
	}
	return caps
}

func isObject(v js.Value) bool {
	return v.Type() == js.TypeObject
}

func isFunction(v js.Value) bool {
	return v.Type() == js.TypeFunction
}

func argsToAny(args []js.Value) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

type keyboard struct {
	target js.Value
}

func (k *keyboard) OnKeyDown(handler func(domain.KeyStroke) bool) error {
	listener := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		event := args[0]
		stroke := domain.KeyStroke{
			Key:   event.Get("key").String(),
			Ctrl:  event.Get("ctrlKey").Truthy(),
			Shift: event.Get("shiftKey").Truthy(),
			Alt:   event.Get("altKey").Truthy(),
			Meta:  event.Get("metaKey").Truthy(),
		}
		if handler(stroke) {
			event.Call("preventDefault")
			return false
		}
		return nil
	})
	k.target.Call("addEventListener", "keydown", listener)
	return nil
}

type contextMenu struct {
	target js.Value
}

func (c *contextMenu) OnContextMenu(handler func() bool) error {
	listener := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) > 0 && handler() {
			args[0].Call("preventDefault")
			return false
		}
		return nil
	})
	c.target.Call("addEventListener", "contextmenu", listener)
	return nil
}

type consoleSink struct {
	value js.Value
}

// SilenceInfo troca log, info e debug por no-ops; warn e error ficam intactos.
func (c *consoleSink) SilenceInfo() error {
	noop := js.FuncOf(func(js.Value, []js.Value) any { return nil })
	for _, method := range []string{"log", "info", "debug"} {
		c.value.Set(method, noop)
	}
	return nil
}

type globals struct {
	global js.Value
	// functionProto é capturado antes de qualquer guard trocar o construtor Function.
	functionProto js.Value
}

func (g *globals) Delete(name string) error {
	if g.global.Get(name).IsUndefined() {
		return nil
	}
	g.global.Delete(name)
	return nil
}

// Lock redefine name como undefined somente leitura. Propriedades não
// configuráveis fazem defineProperty lançar; o erro é devolvido.
func (g *globals) Lock(name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("define %s: %v", name, r)
		}
	}()
	descriptor := js.Global().Get("Object").New()
	descriptor.Set("value", js.Undefined())
	descriptor.Set("writable", false)
	js.Global().Get("Object").Call("defineProperty", g.global, name, descriptor)
	return nil
}

func (g *globals) ObscureFunctionSource(placeholder string) error {
	if !isObject(g.functionProto) && !isFunction(g.functionProto) {
		return domain.ErrCapabilityUnavailable
	}
	toString := js.FuncOf(func(js.Value, []js.Value) any { return placeholder })
	g.functionProto.Set("toString", toString)
	return nil
}

type fetch struct {
	global js.Value
}

func (f *fetch) Intercept(filter func(target string) error) error {
	original := f.global.Get("fetch")
	if !isFunction(original) {
		return domain.ErrCapabilityUnavailable
	}
	promise := f.global.Get("Promise")
	errorCtor := f.global.Get("Error")

	wrapped := js.FuncOf(func(this js.Value, args []js.Value) any {
		if err := filter(requestTarget(args)); err != nil {
			return promise.Call("reject", errorCtor.New(err.Error()))
		}
		return original.Call("apply", this, js.ValueOf(argsToAny(args)))
	})
	f.global.Set("fetch", wrapped)
	return nil
}

// requestTarget extrai a URL do primeiro argumento de fetch, que pode ser
// string, URL ou Request.
func requestTarget(args []js.Value) string {
	if len(args) == 0 {
		return ""
	}
	input := args[0]
	switch input.Type() {
	case js.TypeString:
		return input.String()
	case js.TypeObject:
		if url := input.Get("url"); url.Type() == js.TypeString {
			return url.String()
		}
		return input.Call("toString").String()
	default:
		return ""
	}
}

type frame struct {
	global js.Value
}

func (f *frame) Framed() (bool, error) {
	top := f.global.Get("top")
	self := f.global.Get("self")
	if top.IsUndefined() || top.IsNull() || self.IsUndefined() {
		return false, domain.ErrCapabilityUnavailable
	}
	return !top.Equal(self), nil
}

func (f *frame) BreakOut() error {
	href := f.global.Get("location").Get("href")
	if href.Type() != js.TypeString {
		return fmt.Errorf("window location has no href")
	}
	f.global.Get("top").Set("location", href)
	return nil
}

type pageLocation struct {
	value js.Value
}

func (l *pageLocation) Protocol() (string, error) {
	protocol := l.value.Get("protocol")
	if protocol.Type() != js.TypeString {
		return "", domain.ErrCapabilityUnavailable
	}
	return protocol.String(), nil
}

func (l *pageLocation) Navigate(url string) error {
	l.value.Set("href", url)
	return nil
}

type notifier struct {
	global js.Value
}

func (n *notifier) Alert(message string) error {
	n.global.Call("alert", message)
	return nil
}

type evalHook struct {
	global js.Value
}

// Audit envolve eval e o construtor Function; o código continua sendo avaliado.
func (e *evalHook) Audit(report func(kind string)) error {
	originalEval := e.global.Get("eval")
	originalFunction := e.global.Get("Function")

	e.global.Set("eval", js.FuncOf(func(_ js.Value, args []js.Value) any {
		report("eval")
		return originalEval.Invoke(argsToAny(args)...)
	}))
	wrapped := js.FuncOf(func(_ js.Value, args []js.Value) any {
		report("Function")
		return originalFunction.New(argsToAny(args)...)
	})
	// Mantém instanceof Function funcionando com o construtor trocado.
	wrapped.Set("prototype", originalFunction.Get("prototype"))
	e.global.Set("Function", wrapped)
	return nil
}

type markup struct {
	document js.Value
}

// EscapeText usa o próprio DOM: o texto entra como textContent e sai como innerHTML.
func (m *markup) EscapeText(text string) (string, error) {
	div := m.document.Call("createElement", "div")
	div.Set("textContent", text)
	return div.Get("innerHTML").String(), nil
}
