package integrity

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/openlock/agent/internal/model"
)

// MockReporter captures reports for test assertions.
type MockReporter struct {
	Reports chan *model.IntegrityReport
}

func NewMockReporter() *MockReporter {
	return &MockReporter{Reports: make(chan *model.IntegrityReport, 10)}
}

func (m *MockReporter) Report(report *model.IntegrityReport) {
	select {
	case m.Reports <- report:
	default:
	}
}

func TestComputeFileDigest_SHA256(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "digest_test_*.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write([]byte("hello world")); err != nil {
		t.Fatal(err)
	}
	tmpFile.Close()

	hash, err := ComputeFileDigest(tmpFile.Name(), "sha256")
	if err != nil {
		t.Fatalf("ComputeFileDigest failed: %v", err)
	}

	expected := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if hash != expected {
		t.Errorf("sha256 mismatch.\nGot:  %s\nWant: %s", hash, expected)
	}
}

func TestGetSelfExecutablePath(t *testing.T) {
	path, err := GetSelfExecutablePath()
	if err != nil {
		t.Fatalf("failed to get self path: %v", err)
	}
	if len(path) == 0 {
		t.Error("returned path is empty")
	}
}

func TestVerifySelfBinary_NoExpectedDigest(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "fake_agent_bin")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.WriteString("version 1.0")
	tmpFile.Close()

	tampered, digest, err := verifySelfBinary(tmpFile.Name(), "", "sha256")
	if err != nil {
		t.Fatalf("verifySelfBinary failed: %v", err)
	}
	if tampered {
		t.Error("expected no tamper flag when no baseline digest was set")
	}
	if digest == "" {
		t.Error("expected a computed digest even with no baseline")
	}
}

func TestVerifySelfBinary_DetectsTamper(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "fake_agent_bin")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.WriteString("version 1.0 (secure)")
	tmpFile.Close()

	baseline, err := ComputeFileDigest(tmpFile.Name(), "sha256")
	if err != nil {
		t.Fatal(err)
	}

	f, _ := os.OpenFile(tmpFile.Name(), os.O_WRONLY|os.O_TRUNC, 0644)
	f.WriteString("version 6.6.6 (hacked)")
	f.Close()

	tampered, _, err := verifySelfBinary(tmpFile.Name(), baseline, "sha256")
	if err != nil {
		t.Fatalf("verifySelfBinary failed: %v", err)
	}
	if !tampered {
		t.Error("expected tamper flag after binary content changed")
	}
}

func TestAssessor_PerformFullCheck_ProducesReport(t *testing.T) {
	assessor := NewAssessor(AssessorOptions{
		DetectVM:       true,
		DetectDebugger: true,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := assessor.PerformFullCheck(ctx)
	if err != nil {
		t.Fatalf("PerformFullCheck failed: %v", err)
	}
	if report == nil {
		t.Fatal("expected a non-nil report")
	}
	// Passed must be the negation of Blocking() — an internal
	// consistency invariant of the report itself.
	if report.Passed == report.Blocking() {
		t.Errorf("Passed (%v) must be the negation of Blocking() (%v)", report.Passed, report.Blocking())
	}
}

func TestMonitor_Lifecycle(t *testing.T) {
	assessor := NewAssessor(AssessorOptions{})
	reporter := NewMockReporter()
	monitor := NewMonitor(assessor, reporter)

	monitor.Start(50 * time.Millisecond)
	select {
	case <-reporter.Reports:
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for at least one integrity report")
	}
	monitor.Stop()
}
