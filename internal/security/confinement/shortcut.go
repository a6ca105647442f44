package confinement

import "fmt"

// Modifier is a bitmask of keyboard modifier keys, deliberately
// independent of any specific toolkit's modifier enum so the browser
// layer's key-event source can be swapped without touching policy.
type Modifier uint8

const (
	ModNone Modifier = 0
	ModCtrl Modifier = 1 << (iota - 1)
	ModAlt
	ModShift
	ModSuper
)

func (m Modifier) has(flag Modifier) bool { return m&flag != 0 }

// KeyEvent is the renderer-agnostic shape the embedding webview's
// input hook translates every key-press and shortcut-override event
// into before handing it to the filter.
type KeyEvent struct {
	Modifiers Modifier
	Key       string // "Tab", "F4", "Super", "PrintScreen", "Delete", "F1".."F12", "Backspace", "I", "J", "U", "S", "P", "W", "N", "T"
}

// ShortcutFilter classifies key events against the fixed escape-shortcut
// set. It holds no OS-level hook itself — installation at the renderer
// widget level is the embedding browser package's responsibility,
// since the renderer may consume keys before any application-level
// filter runs.
type ShortcutFilter struct {
	active bool
}

func NewShortcutFilter() *ShortcutFilter {
	return &ShortcutFilter{}
}

func (f *ShortcutFilter) Engage() { f.active = true }
func (f *ShortcutFilter) Release() { f.active = false }
func (f *ShortcutFilter) Active() bool { return f.active }

// Classify returns the canonical shortcut name if the event matches
// one of the fixed escape shortcuts, and a suppressed flag telling the
// caller whether to swallow the event. When the filter isn't engaged
// nothing is ever suppressed.
func (f *ShortcutFilter) Classify(e KeyEvent) (name string, suppressed bool) {
	if !f.active {
		return "", false
	}

	switch {
	case e.Modifiers.has(ModAlt) && e.Key == "Tab":
		return "Alt+Tab", true
	case e.Modifiers.has(ModAlt) && e.Key == "F4":
		return "Alt+F4", true
	case e.Key == "Super":
		return "Super", true
	case e.Key == "PrintScreen":
		return "PrintScreen", true
	case e.Modifiers.has(ModCtrl) && e.Modifiers.has(ModAlt) && e.Key == "Delete":
		return "Ctrl+Alt+Delete", true
	case e.Modifiers.has(ModCtrl) && e.Modifiers.has(ModAlt) && e.Key == "Backspace":
		return "Ctrl+Alt+Backspace", true
	case e.Modifiers.has(ModCtrl) && e.Modifiers.has(ModAlt) && isFunctionKey(e.Key):
		return fmt.Sprintf("Ctrl+Alt+%s", e.Key), true
	case e.Key == "F12":
		return "F12", true
	case e.Modifiers.has(ModCtrl) && e.Modifiers.has(ModShift) && e.Key == "I":
		return "Ctrl+Shift+I", true
	case e.Modifiers.has(ModCtrl) && e.Modifiers.has(ModShift) && e.Key == "J":
		return "Ctrl+Shift+J", true
	case e.Modifiers.has(ModCtrl) && e.Key == "U":
		return "Ctrl+U", true
	case e.Modifiers.has(ModCtrl) && e.Key == "S":
		return "Ctrl+S", true
	case e.Modifiers.has(ModCtrl) && e.Key == "P":
		return "Ctrl+P", true
	case e.Modifiers.has(ModCtrl) && e.Key == "W":
		return "Ctrl+W", true
	case e.Modifiers.has(ModCtrl) && e.Key == "N":
		return "Ctrl+N", true
	case e.Modifiers.has(ModCtrl) && e.Key == "T":
		return "Ctrl+T", true
	default:
		return "", false
	}
}

func isFunctionKey(key string) bool {
	switch key {
	case "F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10", "F11", "F12":
		return true
	default:
		return false
	}
}
