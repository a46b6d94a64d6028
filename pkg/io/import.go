package io

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/scadkit/pkg/errors"
	"github.com/matzehuels/scadkit/pkg/transform"
)

// tolerance bounds the difference between a stored and a recomputed
// coordinate. Documents pass through text, so exact equality is too strict.
const tolerance = 1e-6

// ReadJSON decodes a placement document from r.
//
// The scene is validated and re-evaluated. If the document also carries a
// placement (a non-empty Bottom ring), its matrix and centroid must match the
// recomputed ones. The returned document always holds the recomputed
// placement. ReadJSON does not close r.
func ReadJSON(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode placement document")
	}
	if doc.Version != Version {
		return Document{}, errors.New(errors.ErrCodeUnsupported, "unsupported document version %d (want %d)", doc.Version, Version)
	}
	if err := doc.Scene.Validate(); err != nil {
		return Document{}, fmt.Errorf("scene: %w", err)
	}
	o, err := doc.Scene.Outline()
	if err != nil {
		return Document{}, fmt.Errorf("scene: %w", err)
	}
	pl, err := transform.Evaluate(o, doc.Scene.Transform)
	if err != nil {
		return Document{}, fmt.Errorf("scene: %w", err)
	}

	if len(doc.Placement.Bottom) > 0 {
		if !matEqual(doc.Placement.Matrix, pl.Matrix) {
			return Document{}, errors.New(errors.ErrCodeInvalidInput, "placement matrix does not match scene transform")
		}
		if !vecEqual(doc.Placement.Centroid, pl.Centroid) {
			return Document{}, errors.New(errors.ErrCodeInvalidInput,
				"placement centroid %v does not match scene (%v)", doc.Placement.Centroid, pl.Centroid)
		}
	}
	doc.Placement = pl
	return doc, nil
}

// ImportJSON reads the placement document at path.
func ImportJSON(path string) (Document, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
	}
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

func matEqual(a, b mgl64.Mat4) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tolerance {
			return false
		}
	}
	return true
}

func vecEqual(a, b mgl64.Vec3) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tolerance {
			return false
		}
	}
	return true
}
