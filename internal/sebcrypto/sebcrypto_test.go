package sebcrypto

import (
	"strings"
	"testing"
	"time"
)

func TestRNCryptorRoundTrip(t *testing.T) {
	plaintext := []byte("<?xml version=\"1.0\"?><plist><dict></dict></plist>")
	password := "correct horse battery staple"
	encSalt := []byte("11111111")
	hmacSalt := []byte("22222222")
	iv := []byte("1234567890123456")

	payload, err := RNCryptorEncrypt(plaintext, password, encSalt, hmacSalt, iv)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	got, err := RNCryptorDecrypt(payload, password)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}
}

func TestRNCryptorDecrypt_WrongPasswordFailsAuthentication(t *testing.T) {
	plaintext := []byte("secret settings")
	payload, err := RNCryptorEncrypt(plaintext, "correctpassword", []byte("11111111"), []byte("22222222"), []byte("1234567890123456"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, err := RNCryptorDecrypt(payload, "wrongpassword"); err != ErrAuthenticationFailed {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestRNCryptorDecrypt_TamperedHMACTagFailsAuthentication(t *testing.T) {
	plaintext := []byte("secret settings")
	payload, err := RNCryptorEncrypt(plaintext, "password", []byte("11111111"), []byte("22222222"), []byte("1234567890123456"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-1] ^= 0xff

	if _, err := RNCryptorDecrypt(tampered, "password"); err != ErrAuthenticationFailed {
		t.Fatalf("expected ErrAuthenticationFailed on tamper, got %v", err)
	}
}

func TestRNCryptorDecrypt_RejectsUnsupportedVersion(t *testing.T) {
	payload, err := RNCryptorEncrypt([]byte("x"), "password", []byte("11111111"), []byte("22222222"), []byte("1234567890123456"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	payload[0] = 0x09
	if _, err := RNCryptorDecrypt(payload, "password"); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestParseSebFile_PlainXMLPrefix(t *testing.T) {
	xmlDoc := []byte(`<?xml version="1.0"?><plist><dict></dict></plist>`)
	got, err := ParseSebFile(xmlDoc, "")
	if err != nil {
		t.Fatalf("ParseSebFile: %v", err)
	}
	if string(got) != string(xmlDoc) {
		t.Fatalf("expected passthrough for <?xm prefix, got %q", got)
	}
}

func TestParseSebFile_EncryptedRequiresPassword(t *testing.T) {
	payload := append([]byte("pswd"), []byte{0x03, 0x01}...)
	if _, err := ParseSebFile(payload, ""); err != ErrPasswordRequired {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
}

func TestParseSebFile_UnknownPrefix(t *testing.T) {
	if _, err := ParseSebFile([]byte("zzzz-not-a-seb-file"), ""); err != ErrUnknownFormat {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestParseSebFile_EncryptedRoundTrip(t *testing.T) {
	xmlDoc := []byte(`<?xml version="1.0"?><plist><dict><key>startURL</key><string>https://exam.example.edu</string></dict></plist>`)
	rn, err := RNCryptorEncrypt(xmlDoc, "examsecret", []byte("11111111"), []byte("22222222"), []byte("1234567890123456"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	seb := append([]byte("pswd"), rn...)

	got, err := ParseSebFile(seb, "examsecret")
	if err != nil {
		t.Fatalf("ParseSebFile: %v", err)
	}
	if string(got) != string(xmlDoc) {
		t.Fatalf("round trip mismatch: got %q", got)
	}
}

func TestPlistRoundTrip(t *testing.T) {
	settings := map[string]interface{}{
		"startURL":       "https://exam.example.edu",
		"enableJavaScript": true,
		"maxAttempts":    int64(3),
		"allowedHosts":   []interface{}{"a.example.edu", "b.example.edu"},
	}

	doc := SerializePlist(settings)
	decoded, err := ParsePlist(doc)
	if err != nil {
		t.Fatalf("ParsePlist: %v", err)
	}

	if decoded["startURL"] != settings["startURL"] {
		t.Fatalf("startURL mismatch: %v", decoded["startURL"])
	}
	if decoded["enableJavaScript"] != true {
		t.Fatalf("enableJavaScript mismatch: %v", decoded["enableJavaScript"])
	}
	if decoded["maxAttempts"] != int64(3) {
		t.Fatalf("maxAttempts mismatch: %v", decoded["maxAttempts"])
	}
}

func TestSerializeSebJSON_KeyOrderInvariant(t *testing.T) {
	a := map[string]interface{}{"zeta": "1", "alpha": "2", "Middle": "3"}
	b := map[string]interface{}{"alpha": "2", "Middle": "3", "zeta": "1"}

	if SerializeSebJSON(a) != SerializeSebJSON(b) {
		t.Fatalf("key order changed output:\n%s\n%s", SerializeSebJSON(a), SerializeSebJSON(b))
	}
}

func TestSerializeSebJSON_DropsOriginatorVersion(t *testing.T) {
	withVersion := map[string]interface{}{"startURL": "https://x", "originatorVersion": "3.5.0"}
	withoutVersion := map[string]interface{}{"startURL": "https://x"}

	if SerializeSebJSON(withVersion) != SerializeSebJSON(withoutVersion) {
		t.Fatalf("originatorVersion affected output:\n%s\n%s", SerializeSebJSON(withVersion), SerializeSebJSON(withoutVersion))
	}
}

func TestDeriveConfigKey_Deterministic(t *testing.T) {
	settings := map[string]interface{}{"startURL": "https://exam.example.edu", "quitURL": "https://exam.example.edu/done"}

	k1 := DeriveConfigKey(settings)
	k2 := DeriveConfigKey(settings)
	if k1 != k2 {
		t.Fatal("DeriveConfigKey is not deterministic")
	}
}

func TestRequestHash_FragmentInvariant(t *testing.T) {
	key := [32]byte{1, 2, 3}

	h1, err := RequestHash("https://exam.example.edu/page?x=1#section-2", key)
	if err != nil {
		t.Fatalf("RequestHash: %v", err)
	}
	h2, err := RequestHash("https://exam.example.edu/page?x=1#different-section", key)
	if err != nil {
		t.Fatalf("RequestHash: %v", err)
	}
	h3, err := RequestHash("https://exam.example.edu/page?x=1", key)
	if err != nil {
		t.Fatalf("RequestHash: %v", err)
	}

	if h1 != h2 || h1 != h3 {
		t.Fatalf("fragment altered request hash: %s %s %s", h1, h2, h3)
	}
}

func TestRequestHash_QueryChangesHash(t *testing.T) {
	key := [32]byte{9, 9, 9}
	h1, _ := RequestHash("https://exam.example.edu/page?x=1", key)
	h2, _ := RequestHash("https://exam.example.edu/page?x=2", key)
	if h1 == h2 {
		t.Fatal("expected query change to alter request hash")
	}
}

func TestNavigationFilter_DangerousSchemeTakesPrecedence(t *testing.T) {
	f := NewNavigationFilter([]string{"*"}, nil)
	if got := f.Classify("javascript:alert(1)"); got != Blocked {
		t.Fatalf("expected Blocked for dangerous scheme even with wildcard allow, got %s", got)
	}
	if got := f.Classify("file:///etc/passwd"); got != Blocked {
		t.Fatalf("expected Blocked for file scheme, got %s", got)
	}
}

func TestNavigationFilter_SSOIndicatorAllowedOutsideAllowlist(t *testing.T) {
	f := NewNavigationFilter([]string{"exam.example.edu/*"}, nil)
	if got := f.Classify("https://login.microsoftonline.com/oauth"); got != AllowedSSO {
		t.Fatalf("expected AllowedSSO, got %s", got)
	}
}

func TestNavigationFilter_BlockPatternWinsOverAllow(t *testing.T) {
	f := NewNavigationFilter([]string{"exam.example.edu/*"}, []string{"exam.example.edu/cheat*"})
	if got := f.Classify("https://exam.example.edu/cheatsheet.html"); got != Blocked {
		t.Fatalf("expected Blocked, got %s", got)
	}
	if got := f.Classify("https://exam.example.edu/question1"); got != Allowed {
		t.Fatalf("expected Allowed, got %s", got)
	}
}

func TestNavigationFilter_AllowlistExhaustionBlocksUnmatched(t *testing.T) {
	f := NewNavigationFilter([]string{"exam.example.edu/*"}, nil)
	if got := f.Classify("https://other.example.com/"); got != Blocked {
		t.Fatalf("expected Blocked for host outside allowlist, got %s", got)
	}
}

func TestNavigationFilter_DefaultAllowWithNoPatterns(t *testing.T) {
	f := NewNavigationFilter(nil, nil)
	if got := f.Classify("https://anything.example.com/"); got != Allowed {
		t.Fatalf("expected default Allowed with empty pattern lists, got %s", got)
	}
}

func TestPlistDateRoundTrip(t *testing.T) {
	when := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)
	settings := map[string]interface{}{"examStartTime": when}

	doc := SerializePlist(settings)
	if !strings.Contains(string(doc), "<date>2026-03-05T14:30:00Z</date>") {
		t.Fatalf("expected ISO-8601 <date> element, got %s", doc)
	}

	decoded, err := ParsePlist(doc)
	if err != nil {
		t.Fatalf("ParsePlist: %v", err)
	}
	got, ok := decoded["examStartTime"].(time.Time)
	if !ok {
		t.Fatalf("expected time.Time, got %T", decoded["examStartTime"])
	}
	if !got.Equal(when) {
		t.Fatalf("round trip mismatch: got %v want %v", got, when)
	}
}

func TestSerializeSebJSON_TimestampAsISO8601String(t *testing.T) {
	when := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)
	out := SerializeSebJSON(map[string]interface{}{"examStartTime": when})
	if out != `{"examStartTime":"2026-03-05T14:30:00Z"}` {
		t.Fatalf("unexpected SEB-JSON output: %s", out)
	}
}

func TestDeriveBEK_Deterministic(t *testing.T) {
	m := BrowserExamKeyMaterial{
		ExamKeySalt:    [32]byte{1, 2, 3},
		ConfigPlistXml: []byte("<plist></plist>"),
	}
	m.BinaryFilesHash = [32]byte{4, 5, 6}

	if DeriveBEK(m) != DeriveBEK(m) {
		t.Fatal("DeriveBEK is not deterministic")
	}

	other := m
	other.ExamKeySalt = [32]byte{9, 9, 9}
	if DeriveBEK(m) == DeriveBEK(other) {
		t.Fatal("expected different salt to change BEK")
	}
}
