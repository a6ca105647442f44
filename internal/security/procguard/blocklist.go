// Package procguard implements the process blocklist, scanner, and
// terminator that make up C2: enumerate every visible process, match
// against a category-based blocklist, and kill violators.
package procguard

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/openlock/agent/internal/logger"
)

// Categories mirror blocklist.json's top-level groups.
var defaultCategories = map[string][]string{
	"screen_capture": {
		"obs", "obs-studio", "ffmpeg", "recordmydesktop",
		"simplescreenrecorder", "kazam", "peek", "wf-recorder",
		"vokoscreen", "screenstudio",
	},
	"screen_sharing": {
		"zoom", "teams", "discord", "slack", "skype",
		"anydesk", "teamviewer", "rustdesk",
	},
	"messaging": {
		"telegram-desktop", "signal-desktop", "pidgin",
		"thunderbird", "evolution", "whatsapp",
	},
	"virtual_machines": {
		"virtualbox", "vboxmanage", "vmware", "vmplayer",
		"qemu", "qemu-system-x86_64", "virt-manager",
		"gnome-boxes",
	},
	"remote_desktop": {
		"xrdp", "vino", "remmina", "x11vnc", "tigervnc",
		"vinagre", "krdc", "freerdp",
	},
	"terminals": {
		"gnome-terminal", "konsole", "xterm", "alacritty",
		"kitty", "tmux", "screen", "terminator", "tilix",
		"guake", "yakuake", "urxvt", "rxvt", "st",
		"xfce4-terminal", "lxterminal", "mate-terminal",
		"foot", "wezterm",
	},
	"browsers": {
		"firefox", "chromium", "chromium-browser", "brave",
		"brave-browser", "vivaldi", "opera", "epiphany",
		"midori", "falkon", "google-chrome", "microsoft-edge",
	},
	"automation": {
		"xdotool", "xautomation", "ydotool", "wtype",
		"xte", "xclip", "xsel", "wl-copy", "wl-paste",
	},
}

// blocklistFile is the shape of blocklist.json.
type blocklistFile struct {
	ScreenCapture   []string `json:"screen_capture"`
	ScreenSharing   []string `json:"screen_sharing"`
	Messaging       []string `json:"messaging"`
	VirtualMachines []string `json:"virtual_machines"`
	RemoteDesktop   []string `json:"remote_desktop"`
	Terminals       []string `json:"terminals"`
	Browsers        []string `json:"browsers"`
	Automation      []string `json:"automation"`
	Patterns        []string `json:"patterns"`
}

// Blocklist is a set of lowercased process names plus compiled regular
// expressions. A process matches iff its short name, its executable
// basename, or its full command line/executable path matches any
// entry.
type Blocklist struct {
	names    map[string]bool
	patterns []*regexp.Regexp
	allow    map[string]bool
}

func NewBlocklist() *Blocklist {
	return &Blocklist{
		names: make(map[string]bool),
		allow: make(map[string]bool),
	}
}

// LoadDefaults populates the built-in category set. Called whenever no
// blocklist.json is available.
func (b *Blocklist) LoadDefaults() {
	for _, names := range defaultCategories {
		for _, n := range names {
			b.names[strings.ToLower(n)] = true
		}
	}
	logger.Info("process blocklist loaded defaults", "count", len(b.names))
}

// LoadFromFile parses blocklist.json at path. Falls back to defaults
// on any read or parse error, per the source's tolerant behavior — an
// unreadable blocklist file must never leave the guard with zero
// protection.
func (b *Blocklist) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("cannot open blocklist file, using defaults", "path", path, "error", err)
		b.LoadDefaults()
		return nil
	}

	// A blocklist.json authored on a legacy GBK-locale Windows workstation
	// is not valid UTF-8; transcode it before decoding so its process
	// names still match what /proc reports.
	if mightBeGBK(data) {
		if decoded, err := decodeGBK(data); err == nil {
			data = decoded
		} else {
			logger.Warn("blocklist GBK transcode failed, trying raw bytes", "path", path, "error", err)
		}
	}

	var doc blocklistFile
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Warn("blocklist JSON parse error, using defaults", "path", path, "error", err)
		b.LoadDefaults()
		return nil
	}

	for _, group := range [][]string{
		doc.ScreenCapture, doc.ScreenSharing, doc.Messaging, doc.VirtualMachines,
		doc.RemoteDesktop, doc.Terminals, doc.Browsers, doc.Automation,
	} {
		for _, n := range group {
			b.names[strings.ToLower(n)] = true
		}
	}

	for _, p := range doc.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			logger.Warn("invalid blocklist pattern, skipping", "pattern", p, "error", err)
			continue
		}
		b.patterns = append(b.patterns, re)
	}

	logger.Info("loaded blocklist", "names", len(b.names), "patterns", len(b.patterns))
	return nil
}

// Add adds a single process name, lowercased.
func (b *Blocklist) Add(name string) {
	b.names[strings.ToLower(name)] = true
}

// AddPattern compiles and adds a case-insensitive regex pattern.
func (b *Blocklist) AddPattern(pattern string) error {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return err
	}
	b.patterns = append(b.patterns, re)
	return nil
}

// Allow exempts a process name from the blocklist regardless of any
// other matching rule.
func (b *Blocklist) Allow(name string) {
	b.allow[strings.ToLower(name)] = true
}

// IsBlocked reports whether the given name/cmdline/exe triple matches
// the blocklist. The allowlist takes precedence.
func (b *Blocklist) IsBlocked(name, cmdline, exe string) bool {
	lowerName := strings.ToLower(name)
	if b.allow[lowerName] {
		return false
	}

	if b.names[lowerName] {
		return true
	}

	if exe != "" {
		exeBase := strings.ToLower(exe[strings.LastIndex(exe, "/")+1:])
		if b.names[exeBase] {
			return true
		}
	}

	for _, pattern := range b.patterns {
		if pattern.MatchString(cmdline) || pattern.MatchString(exe) {
			return true
		}
	}

	return false
}

// mightBeGBK reports whether data has non-ASCII bytes but is not valid
// UTF-8 — the same heuristic the document-encoding detector uses before
// attempting a GBK decode.
func mightBeGBK(data []byte) bool {
	hasHighByte := false
	for _, b := range data {
		if b >= 0x80 {
			hasHighByte = true
			break
		}
	}
	return hasHighByte && !utf8.Valid(data)
}

func decodeGBK(data []byte) ([]byte, error) {
	reader := transform.NewReader(bytes.NewReader(data), simplifiedchinese.GBK.NewDecoder())
	return io.ReadAll(reader)
}
