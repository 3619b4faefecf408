package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mvirta/postura-platform/e2e/internal/scenario"
)

// SaveSummary saves a JSON summary of test results
func SaveSummary(result *scenario.TestResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	return writeArtifact(filename, data)
}

// SaveTimeline saves a rendered timeline report to a file
func SaveTimeline(content string, filename string) error {
	return writeArtifact(filename, []byte(content))
}

// writeArtifact writes test output, creating the directory if needed
func writeArtifact(filename string, data []byte) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
