package confinement

import "testing"

func TestShortcutFilter_ClassifiesEscapeShortcuts(t *testing.T) {
	f := NewShortcutFilter()
	f.Engage()

	cases := []struct {
		event KeyEvent
		want  string
	}{
		{KeyEvent{Modifiers: ModAlt, Key: "Tab"}, "Alt+Tab"},
		{KeyEvent{Modifiers: ModAlt, Key: "F4"}, "Alt+F4"},
		{KeyEvent{Key: "Super"}, "Super"},
		{KeyEvent{Key: "PrintScreen"}, "PrintScreen"},
		{KeyEvent{Modifiers: ModCtrl | ModAlt, Key: "Delete"}, "Ctrl+Alt+Delete"},
		{KeyEvent{Modifiers: ModCtrl | ModAlt, Key: "F5"}, "Ctrl+Alt+F5"},
		{KeyEvent{Modifiers: ModCtrl | ModAlt, Key: "Backspace"}, "Ctrl+Alt+Backspace"},
		{KeyEvent{Key: "F12"}, "F12"},
		{KeyEvent{Modifiers: ModCtrl | ModShift, Key: "I"}, "Ctrl+Shift+I"},
		{KeyEvent{Modifiers: ModCtrl | ModShift, Key: "J"}, "Ctrl+Shift+J"},
		{KeyEvent{Modifiers: ModCtrl, Key: "U"}, "Ctrl+U"},
		{KeyEvent{Modifiers: ModCtrl, Key: "S"}, "Ctrl+S"},
		{KeyEvent{Modifiers: ModCtrl, Key: "P"}, "Ctrl+P"},
		{KeyEvent{Modifiers: ModCtrl, Key: "W"}, "Ctrl+W"},
		{KeyEvent{Modifiers: ModCtrl, Key: "N"}, "Ctrl+N"},
		{KeyEvent{Modifiers: ModCtrl, Key: "T"}, "Ctrl+T"},
	}

	for _, tc := range cases {
		name, suppressed := f.Classify(tc.event)
		if !suppressed || name != tc.want {
			t.Errorf("Classify(%+v) = (%q, %v), want (%q, true)", tc.event, name, suppressed, tc.want)
		}
	}
}

func TestShortcutFilter_AllowsOrdinaryKeys(t *testing.T) {
	f := NewShortcutFilter()
	f.Engage()

	_, suppressed := f.Classify(KeyEvent{Key: "A"})
	if suppressed {
		t.Error("ordinary key must not be suppressed")
	}
}

func TestShortcutFilter_InactiveNeverSuppresses(t *testing.T) {
	f := NewShortcutFilter()
	// Never engaged.
	_, suppressed := f.Classify(KeyEvent{Modifiers: ModAlt, Key: "Tab"})
	if suppressed {
		t.Error("filter must not suppress before Engage")
	}
}

func TestShortcutFilter_CtrlAloneDoesNotMatchAltCombos(t *testing.T) {
	f := NewShortcutFilter()
	f.Engage()

	_, suppressed := f.Classify(KeyEvent{Modifiers: ModCtrl, Key: "Delete"})
	if suppressed {
		t.Error("Ctrl+Delete without Alt must not match Ctrl+Alt+Delete")
	}
}
