package selection

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportResultsWriter(t *testing.T) {
	sel := NewSequentialBackwardSelector(&indexScorer{},
		WithReducedFeatureSize(2),
		WithoutCrossValidation(),
	)
	require.NoError(t, sel.Fit(indexMatrix(6, 4), columnOfZeros(6)))

	var buf bytes.Buffer
	require.NoError(t, sel.ExportResultsWriter(&buf))

	out := buf.String()
	assert.Contains(t, out, `"featureSize"`)
	assert.Contains(t, out, `"score"`)
	assert.Contains(t, out, `"features"`)

	loaded, err := LoadRecords(&buf)
	require.NoError(t, err)
	assert.Equal(t, sel.Records(), loaded)
}

func TestExportResultsFile(t *testing.T) {
	sel := NewSequentialBackwardSelector(&indexScorer{},
		WithReducedFeatureSize(2),
		WithoutCrossValidation(),
	)
	require.NoError(t, sel.Fit(indexMatrix(6, 4), columnOfZeros(6)))

	path := filepath.Join(t.TempDir(), "selection.json")
	require.NoError(t, sel.ExportResults(path))

	loaded, err := LoadRecordsFile(path)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, []int{0, 2}, loaded[2].Features)
}

func TestExportResultsEmptyLog(t *testing.T) {
	// A reduced feature size above the column count leaves the log
	// empty; the export must still be a valid JSON array.
	sel := NewSequentialBackwardSelector(&indexScorer{},
		WithReducedFeatureSize(10),
		WithoutCrossValidation(),
	)
	require.NoError(t, sel.Fit(indexMatrix(5, 4), columnOfZeros(5)))

	var buf bytes.Buffer
	require.NoError(t, sel.ExportResultsWriter(&buf))
	assert.Equal(t, "[]\n", buf.String())

	loaded, err := LoadRecords(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadRecordsFileMissing(t *testing.T) {
	_, err := LoadRecordsFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadRecordsRejectsGarbage(t *testing.T) {
	_, err := LoadRecords(bytes.NewReader([]byte("not json")))
	assert.Error(t, err)
}
