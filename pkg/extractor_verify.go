package pkg

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/scanwerk/scansplit/internal/container"
	"github.com/scanwerk/scansplit/internal/geometry"
	"github.com/scanwerk/scansplit/internal/pcz"
)

// RunVerify re-reads the outputs produced for a container and checks
// every stored point against the crop bounds recomputed from the scan
// headers, plus the output point count against the scan point count.
// Coordinates are rebuilt with decimal arithmetic on the stored scaled
// integers so the check itself adds no float rounding.
func RunVerify(containerPath string, outputDir string, radius float64) error {
	cont, err := container.Open(containerPath)
	if err != nil {
		return err
	}
	defer func() { _ = cont.Close() }()

	headers, err := cont.Headers()
	if err != nil {
		return err
	}

	stem := getFilenameWithoutExtension(containerPath)
	if outputDir == "" {
		outputDir = filepath.Join(filepath.Dir(containerPath), "output")
	}

	for i, h := range headers {
		outPath := filepath.Join(outputDir, fmt.Sprintf("%s-%s%s", stem, h.Name, pcz.Ext))
		glog.Infoln("> verifying", filepath.Base(outPath))
		if err := verifyScanFile(outPath, h, radius); err != nil {
			return errors.Wrapf(err, "scan %d [%s]", i, h.Name)
		}
	}
	glog.Infoln("Verify container outputs success.")
	return nil
}

func verifyScanFile(path string, h container.ScanHeader, radius float64) error {
	r, err := pcz.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	hdr := r.Header()
	box := geometry.NewBoundingBoxFromRadius(h.Translation, radius)

	two := decimal.NewFromInt(2)
	scale := [3]decimal.Decimal{
		decimal.NewFromFloat(hdr.Scale.X),
		decimal.NewFromFloat(hdr.Scale.Y),
		decimal.NewFromFloat(hdr.Scale.Z),
	}
	offset := [3]decimal.Decimal{
		decimal.NewFromFloat(hdr.Offset.X),
		decimal.NewFromFloat(hdr.Offset.Y),
		decimal.NewFromFloat(hdr.Offset.Z),
	}
	// quantization can move a coordinate up to half a scale step past a
	// crop face, so every face is widened by that half step
	min := [3]decimal.Decimal{
		decimal.NewFromFloat(box.Xmin).Sub(scale[0].Div(two)),
		decimal.NewFromFloat(box.Ymin).Sub(scale[1].Div(two)),
		decimal.NewFromFloat(box.Zmin).Sub(scale[2].Div(two)),
	}
	max := [3]decimal.Decimal{
		decimal.NewFromFloat(box.Xmax).Add(scale[0].Div(two)),
		decimal.NewFromFloat(box.Ymax).Add(scale[1].Div(two)),
		decimal.NewFromFloat(box.Zmax).Add(scale[2].Div(two)),
	}

	numPoints := 0
	invalid := 0
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		q := [3]int64{int64(rec.X), int64(rec.Y), int64(rec.Z)}
		inside := true
		for axis := 0; axis < 3; axis++ {
			c := decimal.NewFromInt(q[axis]).Mul(scale[axis]).Add(offset[axis])
			if c.Cmp(min[axis]) < 0 || c.Cmp(max[axis]) > 0 {
				inside = false
			}
		}
		if !inside {
			invalid++
			glog.Infof("invalid point pos:[%d] X:[%d] Y:[%d] Z:[%d]", numPoints, rec.X, rec.Y, rec.Z)
		}
		numPoints++
	}

	glog.Infoln("output num_of_points:", numPoints, ", scan num_of_points:", h.NumPoints)
	if int64(numPoints) > h.NumPoints {
		return errors.Errorf("output holds %d points but the scan only has %d", numPoints, h.NumPoints)
	}
	if invalid > 0 {
		return errors.Errorf("%d of %d points fall outside the crop bounds", invalid, numPoints)
	}
	return nil
}
