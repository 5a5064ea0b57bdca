//go:build js && wasm

// Command wasm publica a camada de proteção para a página como o objeto
// global cardguard. A página chama cardguard.init() depois da primeira
// montagem; só então o serviço é criado e os guards são instalados.
package main

import (
	"context"
	"strings"
	"syscall/js"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JeanGrijp/cardguard/internal/adapters/capabilities/browser"
	"github.com/JeanGrijp/cardguard/internal/adapters/storage/memory"
	"github.com/JeanGrijp/cardguard/internal/core/domain"
	"github.com/JeanGrijp/cardguard/internal/core/services"
)

// mode é definido no build: -ldflags "-X main.mode=production".
var mode = string(domain.ModeDevelopment)

func main() {
	var api js.Value
	initFn := js.FuncOf(func(js.Value, []js.Value) any {
		if api.Truthy() {
			return api
		}
		svc, err := services.Shared(services.Config{
			Mode: domain.ParseMode(mode),
		}, services.Dependencies{
			Storage:      memory.New(),
			Capabilities: browser.Capabilities(),
			Logger:       newLogger(),
		})
		if err != nil {
			return js.Global().Get("Error").New(err.Error())
		}
		api = exports(svc)
		return api
	})

	js.Global().Set("cardguard", js.ValueOf(map[string]any{"init": initFn}))
	select {}
}

// newLogger escreve em console.warn, capturado antes de o guard de console
// silenciar console.log, que é para onde vai a saída padrão do runtime.
func newLogger() *zap.SugaredLogger {
	warn := js.Global().Get("console").Get("warn")
	if warn.Type() != js.TypeFunction {
		return zap.NewNop().Sugar()
	}
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(consoleWriter{fn: warn}), zapcore.WarnLevel)
	return zap.New(core).Sugar().Named("cardguard")
}

type consoleWriter struct {
	fn js.Value
}

func (c consoleWriter) Write(p []byte) (int, error) {
	c.fn.Invoke(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func exports(svc *services.ProtectionService) js.Value {
	ctx := context.Background()

	sanitize := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return svc.Sanitize(stringArg(args, 0))
	})
	escapeHTML := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return svc.EscapeHTML(stringArg(args, 0))
	})
	checkRateLimit := js.FuncOf(func(_ js.Value, args []js.Value) any {
		window, err := domain.WindowFromMillis(int64(intArg(args, 2)))
		if err != nil {
			window = domain.MaxWindow
		}
		rule := domain.RateLimitRule{
			MaxRequests: intArg(args, 1),
			Window:      window,
		}
		return svc.CheckRateLimit(ctx, stringArg(args, 0), rule)
	})
	cleanup := js.FuncOf(func(js.Value, []js.Value) any {
		return svc.CleanupRateLimits(ctx)
	})
	guards := js.FuncOf(func(js.Value, []js.Value) any {
		reports := svc.InstallGuards()
		out := make([]any, 0, len(reports))
		for _, r := range reports {
			out = append(out, map[string]any{
				"guard":  string(r.Guard),
				"status": string(r.Status),
				"reason": r.Reason,
			})
		}
		return out
	})

	return js.ValueOf(map[string]any{
		"sanitize":          sanitize,
		"escapeHtml":        escapeHTML,
		"checkRateLimit":    checkRateLimit,
		"cleanupRateLimits": cleanup,
		"guards":            guards,
	})
}

func stringArg(args []js.Value, i int) string {
	if i >= len(args) || args[i].Type() != js.TypeString {
		return ""
	}
	return args[i].String()
}

// intArg devolve 0 para argumentos ausentes; o serviço troca 0 pelo padrão.
func intArg(args []js.Value, i int) int {
	if i >= len(args) || args[i].Type() != js.TypeNumber {
		return 0
	}
	return args[i].Int()
}
