package pcz

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"

	"github.com/scanwerk/scansplit/internal/data"
)

func TestRoundTripWithAllChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.pcz")
	hdr := Header{
		HasIntensity: true,
		HasColor:     true,
		Scale:        r3.Vector{X: 0.001, Y: 0.001, Z: 0.001},
		Offset:       r3.Vector{X: 10, Y: -20, Z: 0},
	}

	w, err := NewWriter(path, hdr)
	require.NoError(t, err)

	batch1 := []data.Point{
		data.NewPoint(10.123, -19.5, 0.001, 500, 1000, 2000, 3000),
		data.NewPoint(9.999, -20.001, -4.25, 65535, 0, 65535, 0),
	}
	batch2 := []data.Point{
		data.NewPoint(12, -18, 3, 1, 2, 3, 4),
	}
	require.NoError(t, w.Append(batch1))
	require.NoError(t, w.Append(batch2))
	if w.NumPoints() != 3 {
		t.Fatalf("expected 3 appended points got %d", w.NumPoints())
	}
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, hdr, r.Header())

	want := append(append([]data.Point{}, batch1...), batch2...)
	for i, p := range want {
		rec, err := r.Next()
		require.NoError(t, err)

		x, y, z := r.Resolve(rec)
		// a quantized coordinate may move by up to half a scale step
		if math.Abs(x-p.X) > 0.0005 || math.Abs(y-p.Y) > 0.0005 || math.Abs(z-p.Z) > 0.0005 {
			t.Fatalf("point %d coordinates drifted: got (%v,%v,%v) want (%v,%v,%v)", i, x, y, z, p.X, p.Y, p.Z)
		}
		if rec.Intensity != p.Intensity {
			t.Fatalf("point %d intensity: got %d want %d", i, rec.Intensity, p.Intensity)
		}
		if rec.R != p.R || rec.G != p.G || rec.B != p.B {
			t.Fatalf("point %d color: got (%d,%d,%d) want (%d,%d,%d)", i, rec.R, rec.G, rec.B, p.R, p.G, p.B)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected EOF after last record, got %v", err)
	}
}

func TestRoundTripCoordinatesOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.pcz")
	hdr := Header{
		Scale:  r3.Vector{X: 0.001, Y: 0.001, Z: 0.001},
		Offset: r3.Vector{},
	}
	if hdr.recordSize() != 12 {
		t.Fatalf("expected 12-byte bare records got %d", hdr.recordSize())
	}

	w, err := NewWriter(path, hdr)
	require.NoError(t, err)
	require.NoError(t, w.Append([]data.Point{{X: 1, Y: 2, Z: 3}}))
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	rec, err := r.Next()
	require.NoError(t, err)
	if rec.X != 1000 || rec.Y != 2000 || rec.Z != 3000 {
		t.Fatalf("unexpected quantized record %+v", rec)
	}
	if rec.Intensity != 0 || rec.R != 0 {
		t.Fatalf("expected zero channels in bare record, got %+v", rec)
	}
}

func TestOpenRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-pcz")
	require.NoError(t, os.WriteFile(path, []byte("definitely not zstd"), 0644))

	if _, err := Open(path); err == nil {
		t.Fatal("expected an error opening a non-pcz file")
	}
}
