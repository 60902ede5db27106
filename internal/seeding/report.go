package seeding

import (
	"encoding/json"
	"fmt"
	"os"

	"trendseed/cli/internal/xdg"
)

// ReportFile is the name of the run report inside the XDG state directory.
const ReportFile = "last-run.json"

// SaveReport writes s to the XDG state directory and returns the file path.
func SaveReport(s Summary) (string, error) {
	path, err := xdg.StateFile(ReportFile)
	if err != nil {
		return "", fmt.Errorf("resolve report path: %w", err)
	}
	return path, WriteReport(path, s)
}

// WriteReport writes s as indented JSON to path with private permissions.
func WriteReport(path string, s Summary) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// LoadReport reads a report written by WriteReport.
func LoadReport(path string) (Summary, error) {
	var s Summary
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("decode report %s: %w", path, err)
	}
	return s, nil
}
