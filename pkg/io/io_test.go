package io

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/scadkit/pkg/errors"
	"github.com/matzehuels/scadkit/pkg/scene"
	"github.com/matzehuels/scadkit/pkg/transform"
)

func evaluated(t *testing.T, s scene.Scene) Document {
	t.Helper()
	o, err := s.Outline()
	if err != nil {
		t.Fatal(err)
	}
	pl, err := transform.Evaluate(o, s.Transform)
	if err != nil {
		t.Fatal(err)
	}
	return NewDocument(s, pl)
}

func TestRoundTrip(t *testing.T) {
	doc := evaluated(t, scene.Default())

	var buf bytes.Buffer
	if err := WriteJSON(doc, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Scene.Name != "rhombus" || len(got.Scene.Transform) != 3 {
		t.Errorf("scene not preserved: %+v", got.Scene)
	}
	c := got.Placement.Centroid
	if math.Abs(c[0]+14.142135) > 1e-5 || math.Abs(c[1]-42.426406) > 1e-5 || math.Abs(c[2]-1) > 1e-9 {
		t.Errorf("centroid = %v", c)
	}
}

func TestReadJSONSceneOnly(t *testing.T) {
	in := `{"version": 1, "scene": {"shape": {"kind": "rhombus", "args": [4, 8]}, "transform": [{"op": "translate", "v": [1, 2]}]}}`
	doc, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got := doc.Placement.Centroid; got != [3]float64{1, 2, 0} {
		t.Errorf("centroid = %v, want [1 2 0]", got)
	}
	if len(doc.Placement.Bottom) != 4 {
		t.Errorf("placement should be recomputed, got %d bottom points", len(doc.Placement.Bottom))
	}
}

func TestReadJSONErrors(t *testing.T) {
	tampered := evaluated(t, scene.Default())
	tampered.Placement.Centroid[0] += 1
	tamperedJSON, err := MarshalJSON(tampered)
	if err != nil {
		t.Fatal(err)
	}

	moved := evaluated(t, scene.Default())
	moved.Placement.Matrix[12] = 99
	movedJSON, _ := json.Marshal(moved)

	tests := []struct {
		name string
		in   string
		code errors.Code
	}{
		{"malformed", `{"version":`, errors.ErrCodeInvalidInput},
		{"version", `{"version": 7, "scene": {"shape": {"kind": "rhombus"}}}`, errors.ErrCodeUnsupported},
		{"unknown shape", `{"version": 1, "scene": {"shape": {"kind": "hexagon"}}}`, errors.ErrCodeInvalidShape},
		{"bad outline", `{"version": 1, "scene": {"shape": {"kind": "polygon", "points": [{"x":0,"y":0},{"x":1,"y":0}]}}}`, errors.ErrCodeInvalidOutline},
		{"tampered centroid", string(tamperedJSON), errors.ErrCodeInvalidInput},
		{"tampered matrix", string(movedJSON), errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.in))
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExportImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "placement.json")
	if err := ExportJSON(evaluated(t, scene.Default()), path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"version": 1`)) {
		t.Errorf("export missing version:\n%s", data)
	}
	if _, err := ImportJSON(path); err != nil {
		t.Errorf("ImportJSON: %v", err)
	}
	if _, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
}
