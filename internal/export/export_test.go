package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"sketchsynth/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sketchData(t *testing.T) state.Data {
	t.Helper()
	sk := state.NewSketch(300, 200, 1000, state.DefaultParams())
	sk.BeginStroke()
	for i := 0; i < 10; i++ {
		_, err := sk.AddPoint(float64(10*i), float64(5*i), float64(1000+16*i))
		require.NoError(t, err)
	}
	sk.EndStroke()
	sk.BeginStroke()
	_, _ = sk.AddPoint(200, 100, 1200)
	_, _ = sk.AddPoint(250, 150, 1216)
	sk.EndStroke()
	sk.Advance(1216)
	return sk.Data()
}

func TestWriteJSONRoundTrip(t *testing.T) {
	d := sketchData(t)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, d))
	assert.Contains(t, buf.String(), `"numberOfStrokes": 2`)
	assert.Contains(t, buf.String(), `"totalStrokeLength": 12`)

	back, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, d, back)
}

func TestReadJSONRejectsGarbage(t *testing.T) {
	_, err := ReadJSON(bytes.NewBufferString("{"))
	assert.Error(t, err)
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sketchData(t)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestWritePDFEmptySketch(t *testing.T) {
	var buf bytes.Buffer
	d := state.NewSketch(100, 100, 0, state.DefaultParams()).Data()
	require.NoError(t, WritePDF(&buf, d))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWritePDFRejectsEmptyCanvas(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WritePDF(&buf, state.Data{}))
}

func TestSaveFiles(t *testing.T) {
	dir := t.TempDir()
	d := sketchData(t)

	require.NoError(t, SaveJSON(filepath.Join(dir, "sketch.json"), d))
	require.NoError(t, SavePDF(filepath.Join(dir, "sketch.pdf"), d))

	f, err := os.Open(filepath.Join(dir, "sketch.json"))
	require.NoError(t, err)
	defer f.Close()
	back, err := ReadJSON(f)
	require.NoError(t, err)
	assert.Equal(t, d.NumberOfStrokes, back.NumberOfStrokes)

	info, err := os.Stat(filepath.Join(dir, "sketch.pdf"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, SaveJSON(filepath.Join(dir, "missing", "x.json"), d))
}
