package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/scadkit/pkg/scene"
	"github.com/matzehuels/scadkit/pkg/transform"
)

// Version is the current document format version.
const Version = 1

// Document is one exported evaluation.
type Document struct {
	Version   int                 `json:"version"`
	Scene     scene.Scene         `json:"scene"`
	Placement transform.Placement `json:"placement"`
}

// NewDocument pairs a scene with its placement.
func NewDocument(s scene.Scene, pl transform.Placement) Document {
	return Document{Version: Version, Scene: s, Placement: pl}
}

// WriteJSON encodes doc as indented JSON and writes it to w.
func WriteJSON(doc Document, w io.Writer) error {
	if doc.Version == 0 {
		doc.Version = Version
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalJSON is WriteJSON into a byte slice.
func MarshalJSON(doc Document) ([]byte, error) {
	if doc.Version == 0 {
		doc.Version = Version
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportJSON writes doc to the file at path.
func ExportJSON(doc Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(doc, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
