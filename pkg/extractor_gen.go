package pkg

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/scanwerk/scansplit/internal/container"
	"github.com/scanwerk/scansplit/internal/data"
	"github.com/scanwerk/scansplit/tools"
)

// GenOptions controls synthetic container generation.
type GenOptions struct {
	Output        string
	NumScans      int
	PointsPerScan int
	Spread        float64 // cloud half-width in meters around each scan origin
	WithIntensity bool
	WithColor     bool
	Seed          int64
}

const genChunkSize = 4096

// RunGen writes a synthetic scan container for exercising the
// extractor without real capture data. Scan origins are spaced 100
// meters apart along X with identity orientation.
func RunGen(opts *GenOptions) error {
	if opts.Output == "" {
		return errors.New("no output container path given")
	}
	if opts.NumScans <= 0 || opts.PointsPerScan <= 0 {
		return errors.New("scans and points per scan must be positive")
	}

	w, err := container.Create(opts.Output, time.Now())
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	rng := rand.New(rand.NewSource(opts.Seed))
	for s := 0; s < opts.NumScans; s++ {
		origin := r3.Vector{X: float64(s) * 100}
		id, err := w.AddScan(container.ScanSpec{
			Name:         fmt.Sprintf("scan-%03d", s),
			Translation:  origin,
			Rotation:     quat.Number{Real: 1},
			HasIntensity: opts.WithIntensity,
			HasColor:     opts.WithColor,
		})
		if err != nil {
			return err
		}

		chunk := make([]data.Point, 0, genChunkSize)
		for i := 0; i < opts.PointsPerScan; i++ {
			p := data.Point{
				X: origin.X + (rng.Float64()*2-1)*opts.Spread,
				Y: origin.Y + (rng.Float64()*2-1)*opts.Spread,
				Z: origin.Z + (rng.Float64()*2-1)*opts.Spread,
			}
			if opts.WithIntensity {
				p.Intensity = uint16(rng.Intn(65536))
			}
			if opts.WithColor {
				p.R = uint16(rng.Intn(65536))
				p.G = uint16(rng.Intn(65536))
				p.B = uint16(rng.Intn(65536))
			}
			chunk = append(chunk, p)
			if len(chunk) == genChunkSize {
				if err := w.AppendChunk(id, chunk); err != nil {
					return err
				}
				chunk = chunk[:0]
			}
		}
		if len(chunk) > 0 {
			if err := w.AppendChunk(id, chunk); err != nil {
				return err
			}
		}
		tools.LogOutput("> generated scan", s+1, "/", opts.NumScans)
	}
	return nil
}
