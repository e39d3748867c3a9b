package model

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

type dummyModel struct {
	Weights []float64
	Bias    float64
	Fitted  bool
}

func TestSaveLoadModelToWriter(t *testing.T) {
	original := &dummyModel{
		Weights: []float64{1.5, -2.0, 0.25},
		Bias:    0.5,
		Fitted:  true,
	}

	var buf bytes.Buffer
	if err := SaveModelToWriter(original, &buf); err != nil {
		t.Fatalf("SaveModelToWriter: %v", err)
	}

	loaded := &dummyModel{}
	if err := LoadModelFromReader(loaded, &buf); err != nil {
		t.Fatalf("LoadModelFromReader: %v", err)
	}

	if loaded.Bias != original.Bias || loaded.Fitted != original.Fitted {
		t.Errorf("loaded = %+v, want %+v", loaded, original)
	}
	if len(loaded.Weights) != len(original.Weights) {
		t.Fatalf("len(Weights) = %d, want %d", len(loaded.Weights), len(original.Weights))
	}
	for i := range original.Weights {
		if loaded.Weights[i] != original.Weights[i] {
			t.Errorf("Weights[%d] = %v, want %v", i, loaded.Weights[i], original.Weights[i])
		}
	}
}

func TestSaveLoadModelFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.gob")

	original := &dummyModel{Weights: []float64{3.0}, Bias: -1.0, Fitted: true}
	if err := SaveModel(original, path); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("saved file not found: %v", err)
	}

	loaded := &dummyModel{}
	if err := LoadModel(loaded, path); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if loaded.Bias != original.Bias {
		t.Errorf("Bias = %v, want %v", loaded.Bias, original.Bias)
	}
}

func TestLoadModelMissingFile(t *testing.T) {
	loaded := &dummyModel{}
	err := LoadModel(loaded, filepath.Join(t.TempDir(), "no_such_model.gob"))
	if err == nil {
		t.Error("LoadModel should fail for a missing file")
	}
}
