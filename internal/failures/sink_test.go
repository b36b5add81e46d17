package failures

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSinkPersistsReport(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}

	receipt, err := sink.Report("database", "incidents create", errors.New("connection refused"))
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if !strings.HasSuffix(receipt, "database incidents create.json") {
		t.Errorf("receipt = %q, want category and operation in the filename", receipt)
	}
	if !strings.HasPrefix(receipt, "[") {
		t.Errorf("receipt = %q, want bracketed id prefix", receipt)
	}

	data, err := os.ReadFile(filepath.Join(dir, receipt))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if report.Category != "database" || report.Operation != "incidents create" {
		t.Errorf("report = %+v", report)
	}
	if report.Message != "connection refused" {
		t.Errorf("Message = %q", report.Message)
	}
	if report.ErrorType != "*errors.errorString" {
		t.Errorf("ErrorType = %q", report.ErrorType)
	}
	if report.Stack == "" {
		t.Error("Stack is empty")
	}
	if report.System.OS == "" || report.System.GoVersion == "" {
		t.Errorf("System = %+v", report.System)
	}
}

func TestFileSinkRequiresDirectory(t *testing.T) {
	if _, err := NewFileSink(""); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestFileSinkCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	if _, err := NewFileSink(dir); err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("report directory not created: %v", err)
	}
}

func TestLogSinkReturnsReceipt(t *testing.T) {
	receipt, err := LogSink{}.Report("database", "incidents get", errors.New("timeout"))
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if receipt == "" {
		t.Error("receipt is empty")
	}
}

func TestReportIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newReportID()
		if seen[id] {
			t.Fatalf("duplicate report id %q", id)
		}
		seen[id] = true
	}
}
