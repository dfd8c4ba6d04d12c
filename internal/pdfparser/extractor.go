package pdfparser

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultCommand is the poppler tool used to turn statements into text.
const DefaultCommand = "pdftotext"

// Extractor returns the text of a PDF with its column layout preserved.
// Tests inject a MockExtractor so no external tool is needed.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// CommandExtractor runs pdftotext -layout and reads its standard output.
type CommandExtractor struct {
	Command string
}

// NewCommandExtractor creates a CommandExtractor. An empty command means DefaultCommand.
func NewCommandExtractor(command string) *CommandExtractor {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	return &CommandExtractor{Command: command}
}

// ExtractText runs the command on pdfPath.
func (e *CommandExtractor) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Command, "-layout", "-enc", "UTF-8", pdfPath, "-") // #nosec G204 -- command comes from configuration
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("error running %s: %w: %s", e.Command, err, msg)
		}
		return "", fmt.Errorf("error running %s: %w", e.Command, err)
	}
	return stdout.String(), nil
}

// MockExtractor returns fixed text or a fixed error.
type MockExtractor struct {
	Text string
	Err  error
}

// NewMockExtractor creates a MockExtractor.
func NewMockExtractor(text string, err error) *MockExtractor {
	return &MockExtractor{Text: text, Err: err}
}

// ExtractText returns the configured text or error.
func (e *MockExtractor) ExtractText(_ context.Context, _ string) (string, error) {
	if e.Err != nil {
		return "", e.Err
	}
	return e.Text, nil
}
