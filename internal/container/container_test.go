package container

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"

	"github.com/scanwerk/scansplit/internal/data"
	"github.com/scanwerk/scansplit/internal/extractor"
)

func TestOpenMissingContainerIsNotFound(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.scdb"))
	if err == nil {
		t.Fatal("expected an error for a missing container")
	}
	var nf *extractor.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError got %T: %v", err, err)
	}
}

func TestContainerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.scdb")
	created := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	w, err := Create(path, created)
	require.NoError(t, err)

	scale := r3.Vector{X: 0.01, Y: 0.01, Z: 0.002}
	offset := r3.Vector{X: 100, Y: -50, Z: 2}
	id, err := w.AddScan(ScanSpec{
		Name:         "station-a",
		Translation:  r3.Vector{X: 1, Y: 2, Z: 3},
		Rotation:     quat.Number{Real: 0.5, Imag: 0.5, Jmag: 0.5, Kmag: 0.5},
		Scale:        &scale,
		Offset:       &offset,
		HasIntensity: true,
		HasColor:     true,
	})
	require.NoError(t, err)

	chunk1 := []data.Point{
		data.NewPoint(1.5, 2.5, 3.5, 700, 10, 20, 30),
		data.NewPoint(-1, -2, -3, 800, 40, 50, 60),
	}
	chunk2 := []data.Point{
		data.NewPoint(0.25, 0.5, 0.75, 900, 70, 80, 90),
	}
	require.NoError(t, w.AppendChunk(id, chunk1))
	require.NoError(t, w.AppendChunk(id, chunk2))
	require.NoError(t, w.Close())

	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()

	got, err := c.CreationDate()
	require.NoError(t, err)
	if !got.Equal(created) {
		t.Fatalf("creation date round trip: got %v want %v", got, created)
	}

	count, err := c.ScanCount()
	require.NoError(t, err)
	if count != 1 {
		t.Fatalf("expected 1 scan got %d", count)
	}

	headers, err := c.Headers()
	require.NoError(t, err)
	require.Len(t, headers, 1)
	h := headers[0]
	if h.Name != "station-a" || h.NumPoints != 3 {
		t.Fatalf("unexpected header %+v", h)
	}
	if h.Scale != scale || h.Offset != offset {
		t.Fatalf("scale/offset round trip: got %v %v", h.Scale, h.Offset)
	}
	if h.Rotation.Real != 0.5 || h.Rotation.Imag != 0.5 {
		t.Fatalf("rotation round trip: got %v", h.Rotation)
	}
	if !h.HasIntensity || !h.HasColor {
		t.Fatalf("channel flags lost: %+v", h)
	}

	cur, err := c.Points(h)
	require.NoError(t, err)
	defer cur.Close()

	var all []data.Point
	for {
		chunk, err := cur.Next()
		require.NoError(t, err)
		if chunk == nil {
			break
		}
		all = append(all, chunk...)
	}
	want := append(append([]data.Point{}, chunk1...), chunk2...)
	require.Equal(t, want, all)
}

func TestHeadersApplyScaleAndOffsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.scdb")

	w, err := Create(path, time.Now())
	require.NoError(t, err)
	_, err = w.AddScan(ScanSpec{
		Name:        "bare",
		Translation: r3.Vector{},
		Rotation:    quat.Number{Real: 1},
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()

	headers, err := c.Headers()
	require.NoError(t, err)
	require.Len(t, headers, 1)
	h := headers[0]

	def := r3.Vector{X: DefaultScale, Y: DefaultScale, Z: DefaultScale}
	if h.Scale != def {
		t.Fatalf("expected default scale %v got %v", def, h.Scale)
	}
	if h.Offset != (r3.Vector{}) {
		t.Fatalf("expected zero offset got %v", h.Offset)
	}
	if h.GUID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatal("expected a generated guid")
	}
}

func TestPointCursorRejectsBlobLengthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.scdb")

	w, err := Create(path, time.Now())
	require.NoError(t, err)
	id, err := w.AddScan(ScanSpec{
		Name:         "broken",
		Rotation:     quat.Number{Real: 1},
		HasIntensity: true,
	})
	require.NoError(t, err)
	// 2 declared points but only one point worth of xyz payload and a
	// short intensity blob
	require.NoError(t, w.AppendRawChunk(id, 2, make([]byte, 24), make([]byte, 2), nil))
	require.NoError(t, w.Close())

	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()

	headers, err := c.Headers()
	require.NoError(t, err)
	cur, err := c.Points(headers[0])
	require.NoError(t, err)
	defer cur.Close()

	if _, err := cur.Next(); err == nil {
		t.Fatal("expected an error for a mismatched chunk blob")
	}
}
