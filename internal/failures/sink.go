// Package failures persists structured failure reports. Every failure
// caught inside a retry loop is reported here; each report is written as one
// JSON file keyed by a generated unique identifier.
package failures

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"
)

// Report is the persisted failure detail.
type Report struct {
	ID        string     `json:"id"`
	Category  string     `json:"category"`
	Operation string     `json:"operation"`
	ErrorType string     `json:"error_type"`
	Message   string     `json:"message"`
	Stack     string     `json:"stack"`
	System    SystemInfo `json:"system_info"`
	Timestamp time.Time  `json:"timestamp"`
}

// SystemInfo captures the environment the failure occurred in.
type SystemInfo struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	GoVersion string `json:"go_version"`
}

// FileSink writes one JSON report per failure into a directory.
type FileSink struct {
	dir string
}

// NewFileSink creates a file-backed failure sink, creating the directory if
// needed.
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("failure report directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create failure report directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Report persists a failure and returns the report filename as the receipt.
func (s *FileSink) Report(category, operation string, cause error) (string, error) {
	report := buildReport(category, operation, cause)
	filename := reportFilename(report)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode failure report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write failure report: %w", err)
	}
	return filename, nil
}

// LogSink reports failures to the process log instead of persisting them.
// Used when no report directory is configured.
type LogSink struct{}

// Report logs the failure and returns its generated identifier.
func (LogSink) Report(category, operation string, cause error) (string, error) {
	id := newReportID()
	log.Printf("[FAILURES] %s %s %s: %v", id, category, operation, cause)
	return id, nil
}

func buildReport(category, operation string, cause error) *Report {
	return &Report{
		ID:        newReportID(),
		Category:  category,
		Operation: operation,
		ErrorType: fmt.Sprintf("%T", cause),
		Message:   cause.Error(),
		Stack:     string(debug.Stack()),
		System: SystemInfo{
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			GoVersion: runtime.Version(),
		},
		Timestamp: time.Now().UTC(),
	}
}

// reportFilename follows the "[<id> <date>] <category> <operation>.json"
// convention so reports sort by identifier and remain greppable by origin.
func reportFilename(r *Report) string {
	stamp := r.Timestamp.Format("02.01.2006 15.04.05")
	return fmt.Sprintf("[%s %s] %s %s.json", r.ID, stamp, r.Category, r.Operation)
}

func newReportID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Fall back to a time-derived identifier; collisions here only
		// affect report filenames.
		return fmt.Sprintf("t%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x-%x-%x-%x-%x", buf[0:4], buf[4:6], buf[6:8], buf[8:10], buf[10:16])
}
