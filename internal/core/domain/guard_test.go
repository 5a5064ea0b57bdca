package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeProduction, ParseMode("production"))
	assert.Equal(t, ModeProduction, ParseMode(" PROD "))
	assert.Equal(t, ModeDevelopment, ParseMode("staging"))
	assert.Equal(t, ModeDevelopment, ParseMode(""))
	assert.True(t, ModeProduction.IsProduction())
	assert.False(t, ModeDevelopment.IsProduction())
}

func TestGuardSet_Enabled(t *testing.T) {
	set := GuardSet{GuardConsole: false, GuardFetch: true}

	assert.False(t, set.Enabled(GuardConsole))
	assert.True(t, set.Enabled(GuardFetch))
	assert.True(t, set.Enabled(GuardGlobals), "missing guards default to on")
	assert.True(t, GuardSet(nil).Enabled(GuardInspection))
}

func TestInstallOrder_GlobalsLast(t *testing.T) {
	assert.Len(t, InstallOrder, 8)
	assert.Equal(t, GuardGlobals, InstallOrder[len(InstallOrder)-1])
}

func TestIsInspectionShortcut(t *testing.T) {
	tests := []struct {
		name string
		key  KeyStroke
		want bool
	}{
		{"F12", KeyStroke{Key: "F12"}, true},
		{"ctrl shift i", KeyStroke{Key: "I", Ctrl: true, Shift: true}, true},
		{"ctrl shift j lowercase", KeyStroke{Key: "j", Ctrl: true, Shift: true}, true},
		{"ctrl shift c", KeyStroke{Key: "C", Ctrl: true, Shift: true}, true},
		{"cmd option i", KeyStroke{Key: "i", Meta: true, Alt: true}, true},
		{"ctrl u", KeyStroke{Key: "u", Ctrl: true}, true},
		{"cmd u", KeyStroke{Key: "U", Meta: true}, true},
		{"ctrl c copy", KeyStroke{Key: "c", Ctrl: true}, false},
		{"shift i typing", KeyStroke{Key: "I", Shift: true}, false},
		{"plain u", KeyStroke{Key: "u"}, false},
		{"F11", KeyStroke{Key: "F11"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInspectionShortcut(tt.key))
		})
	}
}

func TestIsViewSourceShortcut(t *testing.T) {
	assert.True(t, IsViewSourceShortcut(KeyStroke{Key: "u", Ctrl: true}))
	assert.False(t, IsViewSourceShortcut(KeyStroke{Key: "F12"}))
	assert.False(t, IsViewSourceShortcut(KeyStroke{Key: "I", Ctrl: true, Shift: true}))
}

func TestIsExtensionTarget(t *testing.T) {
	assert.True(t, IsExtensionTarget("chrome-extension://abc/inject.js"))
	assert.True(t, IsExtensionTarget("MOZ-EXTENSION://abc/x"))
	assert.True(t, IsExtensionTarget("https://proxy.local/?u=safari-web-extension://abc"))
	assert.False(t, IsExtensionTarget("https://api.example.com/profile"))
	assert.False(t, IsExtensionTarget(""))
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsCapabilityUnavailable(ErrCapabilityUnavailable))
	assert.False(t, IsCapabilityUnavailable(ErrExtensionBlocked))
	assert.True(t, IsExtensionBlocked(ErrExtensionBlocked))
}
