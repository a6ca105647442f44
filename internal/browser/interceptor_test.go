package browser

import (
	"net/http"
	"strings"
	"testing"

	"github.com/openlock/agent/internal/lms"
	"github.com/openlock/agent/internal/model"
	"github.com/openlock/agent/internal/sebcrypto"
)

func testConfig() model.ExamConfiguration {
	return model.ExamConfiguration{
		ExamName:      "midterm",
		StartURL:      "https://moodle.example.edu/exam",
		RawConfigData: []byte(`{"originatorVersion":"OpenLock 1.0"}`),
		Navigation: model.NavigationPolicy{
			AllowPatterns: []string{"*.example.edu/*"},
			BlockPatterns: []string{"*.example.edu/admin/*"},
		},
	}
}

func TestNewInterceptor_DerivesKeysAndDetectsLMS(t *testing.T) {
	i, err := NewInterceptor(testConfig())
	if err != nil {
		t.Fatalf("NewInterceptor failed: %v", err)
	}

	if i.bek == ([32]byte{}) {
		t.Error("expected a non-zero BEK")
	}
	if i.configKey == ([32]byte{}) {
		t.Error("expected a non-zero config key")
	}
	if got := i.LMSType(); got != lms.Moodle {
		t.Errorf("expected LMS type Moodle for a moodle start URL, got %v", got)
	}
}

func TestInterceptor_AllowNavigationMatchesFilterLadder(t *testing.T) {
	i, err := NewInterceptor(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	if got := i.AllowNavigation("https://cdn.example.edu/exam"); got != sebcrypto.Allowed {
		t.Errorf("expected Allowed, got %v", got)
	}
	if got := i.AllowNavigation("https://cdn.example.edu/admin/reset"); got != sebcrypto.Blocked {
		t.Errorf("expected Blocked, got %v", got)
	}
	if got := i.AllowNavigation("file:///etc/passwd"); got != sebcrypto.Blocked {
		t.Errorf("expected dangerous scheme to be Blocked, got %v", got)
	}
}

func TestInterceptor_RequestOptionsAttachesSEBHeaders(t *testing.T) {
	i, err := NewInterceptor(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	opt, err := i.RequestOptions("https://moodle.example.edu/exam?a=1#frag")
	if err != nil {
		t.Fatalf("RequestOptions failed: %v", err)
	}
	if opt == nil {
		t.Fatal("expected a non-nil RequestOption")
	}

	req, err := http.NewRequest(http.MethodGet, "https://moodle.example.edu/exam", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	opt(req)

	if req.Header.Get(sebcrypto.HeaderRequestHash) == "" {
		t.Error("expected request hash header to be set")
	}
	if req.Header.Get(sebcrypto.HeaderConfigKeyHash) == "" {
		t.Error("expected config key hash header to be set")
	}
	if ua := req.Header.Get("User-Agent"); !strings.Contains(ua, "SEB/3.0 OpenLock/") {
		t.Errorf("expected User-Agent to carry SEB/3.0 OpenLock/<version> suffix, got %q", ua)
	}
}

func TestInterceptor_UserAgentPreservesConfiguredBase(t *testing.T) {
	cfg := testConfig()
	cfg.Browser.UserAgent = "OpenLockKiosk/1.0"

	i, err := NewInterceptor(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if got := i.userAgent(); !strings.HasPrefix(got, "OpenLockKiosk/1.0 SEB/3.0 OpenLock/") {
		t.Errorf("expected configured User-Agent to be preserved with suffix appended, got %q", got)
	}
}
