package pkg

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/scanwerk/scansplit/internal/container"
	"github.com/scanwerk/scansplit/internal/data"
	"github.com/scanwerk/scansplit/internal/extractor"
	"github.com/scanwerk/scansplit/internal/geometry"
	"github.com/scanwerk/scansplit/internal/ledger"
	"github.com/scanwerk/scansplit/internal/pcz"
	"github.com/scanwerk/scansplit/internal/thinning"
	"github.com/scanwerk/scansplit/tools"
)

type IExtractor interface {
	RunExtractor(ctx context.Context, opts *extractor.Options) error
}

type Extractor struct {
	fileFinder tools.FileFinder
}

func NewExtractor(fileFinder tools.FileFinder) IExtractor {
	return &Extractor{
		fileFinder: fileFinder,
	}
}

// Starts the extraction process. Containers are processed strictly
// sequentially; a failed container aborts only itself and the
// remaining inputs still run, with the failures aggregated into the
// returned error.
func (e *Extractor) RunExtractor(ctx context.Context, opts *extractor.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	log.Println("Preparing list of containers to process...")
	files := e.fileFinder.GetContainersToProcess(opts)
	if len(files) == 0 {
		return errors.New("no scan containers to process")
	}
	for i, filePath := range files {
		log.Printf("container path %d [%s]", i, filePath)
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(filepath.Dir(files[0]), "output")
	}
	if err := tools.CreateDirectoryIfDoesNotExist(outputDir); err != nil {
		return errors.Wrapf(err, "create output directory %s", outputDir)
	}

	var errs error
	for i, filePath := range files {
		if strings.ToLower(filepath.Ext(filePath)) != container.Ext {
			log.Printf("skipping non-container file [%s]", filePath)
			continue
		}
		tools.LogOutput("Processing container " + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(files)))
		if err := e.processContainer(ctx, filePath, outputDir, opts); err != nil {
			log.Printf("container [%s] failed: %v", filePath, err)
			errs = multierr.Append(errs, err)
		}
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
	}
	return errs
}

// processContainer extracts every scan of one container. A scan that
// fails aborts only itself: its partial output stays on disk, it gets
// no ledger row, and the remaining scans still run.
func (e *Extractor) processContainer(ctx context.Context, filePath string, outputDir string, opts *extractor.Options) error {
	cont, err := container.Open(filePath)
	if err != nil {
		return err
	}
	defer func() { _ = cont.Close() }()

	created, err := cont.CreationDate()
	if err != nil {
		return err
	}
	headers, err := cont.Headers()
	if err != nil {
		return err
	}

	stem := getFilenameWithoutExtension(filePath)

	var errs error
	for i, h := range headers {
		tools.LogOutput("> extracting scan " + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(headers)) + " [" + h.Name + "]")

		outName := fmt.Sprintf("%s-%s%s", stem, h.Name, pcz.Ext)
		outPath := filepath.Join(outputDir, outName)

		if err := e.extractScan(ctx, cont, h, i, outPath, opts); err != nil {
			log.Printf("scan [%s] failed: %v", h.Name, err)
			errs = multierr.Append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		err := ledger.Append(outputDir, ledger.Record{
			OriginName:   stem,
			ScanName:     outName,
			ScanPath:     outPath,
			CreationDate: created,
			Translation:  h.Translation,
			Rotation:     h.Rotation,
			Scale:        h.Scale,
			Offset:       h.Offset,
		})
		if err != nil {
			return multierr.Append(errs, err)
		}

		if opts.Progress != nil {
			opts.Progress(filePath, h.Name, i, len(headers))
		}
		if ctx.Err() != nil {
			break
		}
	}
	return errs
}

// extractScan streams one scan through the crop, thin, append cycle in
// slices of at most extractor.BatchSize points, so peak memory stays
// bounded regardless of scan size. Thinning sees one batch at a time:
// two near-duplicate points falling on opposite sides of a batch
// boundary are never compared and both survive. Running the thinning
// engine over a whole scan at once would close that gap, at the cost
// of holding the full point set in memory.
func (e *Extractor) extractScan(ctx context.Context, cont *container.Container, h container.ScanHeader, scanIndex int, outPath string, opts *extractor.Options) error {
	box := geometry.NewBoundingBoxFromRadius(h.Translation, opts.Radius)

	cur, err := cont.Points(h)
	if err != nil {
		return &extractor.ScanReadError{Path: cont.Path(), ScanIndex: scanIndex, ScanName: h.Name, Err: err}
	}
	defer func() { _ = cur.Close() }()

	w, err := pcz.NewWriter(outPath, pcz.Header{
		HasIntensity: h.HasIntensity,
		HasColor:     h.HasColor,
		Scale:        h.Scale,
		Offset:       h.Offset,
	})
	if err != nil {
		return err
	}

	batch := make([]data.Point, 0, extractor.BatchSize)
	for {
		chunk, err := cur.Next()
		if err != nil {
			// the partially written output stays in place
			_ = w.Close()
			return &extractor.ScanReadError{Path: cont.Path(), ScanIndex: scanIndex, ScanName: h.Name, Err: err}
		}
		if chunk == nil {
			break
		}
		for len(chunk) > 0 {
			take := min(extractor.BatchSize-len(batch), len(chunk))
			batch = append(batch, chunk[:take]...)
			chunk = chunk[take:]
			if len(batch) == extractor.BatchSize {
				if err := processBatch(batch, box, opts.Spacing, w); err != nil {
					_ = w.Close()
					return err
				}
				batch = batch[:0]
				// cancellation is honored between batches only: a cancel
				// request completes the current batch, then stops
				if err := ctx.Err(); err != nil {
					_ = w.Close()
					return err
				}
			}
		}
	}
	if err := processBatch(batch, box, opts.Spacing, w); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// processBatch runs the crop then the thinning pass over one batch and
// appends the survivors, intensity and color still aligned with their
// coordinates. A batch with no point inside the crop volume is skipped
// without a write or an index build. All intermediate buffers are
// batch-local and dropped on every exit path.
func processBatch(batch []data.Point, box *geometry.BoundingBox, spacing float64, w *pcz.Writer) error {
	if len(batch) == 0 {
		return nil
	}

	cropped := make([]data.Point, 0, len(batch))
	for _, p := range batch {
		if box.Contains(p.X, p.Y, p.Z) {
			cropped = append(cropped, p)
		}
	}
	if len(cropped) == 0 {
		return nil
	}

	mask := thinning.Mask(cropped, spacing)
	kept := 0
	for i, keep := range mask {
		if keep {
			cropped[kept] = cropped[i]
			kept++
		}
	}
	return w.Append(cropped[:kept])
}

func getFilenameWithoutExtension(filePath string) string {
	nameWext := filepath.Base(filePath)
	extension := filepath.Ext(nameWext)
	return nameWext[0 : len(nameWext)-len(extension)]
}
