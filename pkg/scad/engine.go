package scad

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/matzehuels/scadkit/pkg/errors"
)

// Export formats understood by OpenSCAD.
const (
	FormatSTL = "stl"
	FormatOFF = "off"
	FormatAMF = "amf"
	Format3MF = "3mf"
)

// ValidFormats is the set of supported engine export formats.
var ValidFormats = map[string]bool{
	FormatSTL: true,
	FormatOFF: true,
	FormatAMF: true,
	Format3MF: true,
}

// EnvBinary overrides the openscad binary looked up on PATH.
const EnvBinary = "SCADKIT_OPENSCAD"

// defaultBinary is the executable name looked up on PATH.
const defaultBinary = "openscad"

// Engine exports OpenSCAD source to a solid-model format.
type Engine interface {
	Export(ctx context.Context, source []byte, format string) ([]byte, error)
}

// CLIEngine runs the openscad binary.
type CLIEngine struct {
	Binary string
}

// NewCLIEngine returns an engine that runs binary. An empty binary means
// $SCADKIT_OPENSCAD, falling back to openscad on PATH.
func NewCLIEngine(binary string) *CLIEngine {
	if binary == "" {
		binary = os.Getenv(EnvBinary)
	}
	if binary == "" {
		binary = defaultBinary
	}
	return &CLIEngine{Binary: binary}
}

// Available reports whether the engine binary can be found.
func (e *CLIEngine) Available() bool {
	_, err := exec.LookPath(e.Binary)
	return err == nil
}

// Export writes source to a temporary .scad file and asks openscad to
// export it. OpenSCAD picks the output format from the file extension, so
// the output goes to a temporary file as well.
func (e *CLIEngine) Export(ctx context.Context, source []byte, format string) ([]byte, error) {
	if !ValidFormats[format] {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid export format: %q (must be one of: stl, off, amf, 3mf)", format)
	}
	bin, err := exec.LookPath(e.Binary)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngineUnavailable, err,
			"%s export requires OpenSCAD. Install with:\n  macOS:  brew install openscad\n  Linux:  apt install openscad", format)
	}

	dir, err := os.MkdirTemp("", "scadkit-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "model.scad")
	out := filepath.Join(dir, "model."+format)
	if err := os.WriteFile(in, source, 0o644); err != nil {
		return nil, fmt.Errorf("write source: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, "-o", out, in)
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeEngineFailed, err, "openscad: %s", bytes.TrimSpace(errBuf.Bytes()))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEngineFailed, err, "openscad produced no %s output", format)
	}
	return data, nil
}

var _ Engine = (*CLIEngine)(nil)
