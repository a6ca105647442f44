package kms

import (
	"encoding/hex"
	"testing"
)

func TestSessionKeyManager_BindSessionAndGetKey(t *testing.T) {
	km := &SessionKeyManager{}

	if err := km.BindSession("midterm-2026", "https://exam.example.edu"); err != nil {
		t.Fatalf("BindSession failed: %v", err)
	}

	key, err := km.GetKey()
	if err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	if len(key) != SM4KeyLen {
		t.Errorf("key length mismatch: want %d, got %d", SM4KeyLen, len(key))
	}

	t.Logf("derived key (hex): %s", hex.EncodeToString(key))
}

func TestSessionKeyManager_UnboundGetKeyFails(t *testing.T) {
	km := &SessionKeyManager{}
	if _, err := km.GetKey(); err == nil {
		t.Error("expected GetKey to fail before BindSession")
	}
}

func TestSessionKeyManager_DifferentExamsGetDifferentKeys(t *testing.T) {
	km := &SessionKeyManager{}

	if err := km.BindSession("midterm-2026", "https://exam.example.edu"); err != nil {
		t.Fatalf("BindSession failed: %v", err)
	}
	first, _ := km.GetKey()

	if err := km.BindSession("final-2026", "https://exam.example.edu"); err != nil {
		t.Fatalf("BindSession failed: %v", err)
	}
	second, _ := km.GetKey()

	if hex.EncodeToString(first) == hex.EncodeToString(second) {
		t.Fatal("expected different exam identities to derive different session keys")
	}
}
