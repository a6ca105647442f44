package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openlock/agent/internal/model"
	"github.com/openlock/agent/internal/sebcrypto"
)

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadExamConfig_OpenLockJSON(t *testing.T) {
	doc := `{
		"examName": "Midterm",
		"startUrl": "https://exam.example.edu/start",
		"exitPassword": "letmeout",
		"navigation": {"allowedUrlPatterns": ["exam.example.edu/*"]},
		"browser": {"enableJavaScript": true, "showToolbar": false},
		"security": {"detectVM": true, "detectDebugger": true},
		"kiosk": {"fullscreen": true, "multiMonitorLockdown": true},
		"network": {"transportMode": "standard"}
	}`
	path := writeTempFile(t, "exam.openlock", []byte(doc))

	cfg, err := LoadExamConfig(path, "")
	if err != nil {
		t.Fatalf("LoadExamConfig: %v", err)
	}

	if cfg.ExamName != "Midterm" {
		t.Errorf("ExamName = %q", cfg.ExamName)
	}
	if cfg.StartURL != "https://exam.example.edu/start" {
		t.Errorf("StartURL = %q", cfg.StartURL)
	}
	if cfg.SebMode {
		t.Error("expected SebMode false for .openlock document")
	}
	if !cfg.Kiosk.CoverAllMonitors {
		t.Error("expected CoverAllMonitors true")
	}
	if !cfg.Browser.JavaScriptEnabled {
		t.Error("expected JavaScriptEnabled true")
	}
}

func TestLoadExamConfig_OpenLockMissingStartURL(t *testing.T) {
	path := writeTempFile(t, "exam.openlock", []byte(`{"examName": "x"}`))
	if _, err := LoadExamConfig(path, ""); err == nil {
		t.Fatal("expected error for missing startUrl")
	}
}

func TestLoadExamConfig_SebPlainXML(t *testing.T) {
	xmlDoc := []byte(`<?xml version="1.0"?><plist><dict>` +
		`<key>startURL</key><string>https://exam.example.edu/</string>` +
		`<key>examName</key><string>Final</string>` +
		`</dict></plist>`)
	path := writeTempFile(t, "config.seb", xmlDoc)

	cfg, err := LoadExamConfig(path, "")
	if err != nil {
		t.Fatalf("LoadExamConfig: %v", err)
	}
	if !cfg.SebMode {
		t.Error("expected SebMode true for .seb file")
	}
	if cfg.StartURL != "https://exam.example.edu/" {
		t.Errorf("StartURL = %q", cfg.StartURL)
	}
	if cfg.ExamName != "Final" {
		t.Errorf("ExamName = %q", cfg.ExamName)
	}
	if len(cfg.ExamKeySalt) != 32 {
		t.Errorf("expected 32-byte ExamKeySalt, got %d", len(cfg.ExamKeySalt))
	}
}

func TestLoadExamConfig_SniffsSebContentRegardlessOfExtension(t *testing.T) {
	xmlDoc := []byte(`<?xml version="1.0"?><plist><dict><key>startURL</key><string>https://exam.example.edu/</string></dict></plist>`)
	path := writeTempFile(t, "renamed.config", xmlDoc)

	cfg, err := LoadExamConfig(path, "")
	if err != nil {
		t.Fatalf("LoadExamConfig: %v", err)
	}
	if !cfg.SebMode {
		t.Error("expected content sniffing to detect .seb payload despite non-.seb extension")
	}
}

func TestLoadExamConfig_EncryptedSebRequiresPassword(t *testing.T) {
	rn, err := sebcrypto.RNCryptorEncrypt([]byte(`<?xml version="1.0"?><plist><dict></dict></plist>`),
		"secret", []byte("11111111"), []byte("22222222"), []byte("1234567890123456"))
	if err != nil {
		t.Fatalf("encrypt fixture: %v", err)
	}
	path := writeTempFile(t, "config.seb", append([]byte("pswd"), rn...))

	_, err = LoadExamConfig(path, "")
	structured, ok := err.(*model.StructuredError)
	if !ok || structured.Kind != model.ErrSebDecryptPasswordRequired {
		t.Fatalf("expected ErrSebDecryptPasswordRequired, got %v", err)
	}
}

func TestLoadExamConfig_MissingFile(t *testing.T) {
	if _, err := LoadExamConfig(filepath.Join(t.TempDir(), "does-not-exist.openlock"), ""); err == nil {
		t.Fatal("expected error for missing file")
	}
}
