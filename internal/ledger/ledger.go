// Package ledger appends one transform record per processed scan to
// the shared coords.csv file so downstream tooling can reassemble the
// per-scan outputs into a common frame.
package ledger

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// FileName is the ledger file created in every output directory.
const FileName = "coords.csv"

// DateLayout is the creation_date column format.
const DateLayout = "2006-01-02 15:04:05"

var header = []string{
	"origin_name", "scan_name", "scan_path", "creation_date",
	"translation_x", "translation_y", "translation_z",
	"rotation_x", "rotation_y", "rotation_z", "rotation_w",
	"scale_x", "scale_y", "scale_z",
	"offset_x", "offset_y", "offset_z",
}

// Record is one scan's transform row. Rotation is written in x,y,z,w
// column order even though scan headers store the real part first.
type Record struct {
	OriginName   string
	ScanName     string
	ScanPath     string
	CreationDate time.Time
	Translation  r3.Vector
	Rotation     quat.Number
	Scale        r3.Vector
	Offset       r3.Vector
}

// Append writes one record to dir/coords.csv, creating the file with
// its header row on first use. The file is opened, appended and closed
// per call; scans complete strictly sequentially, so no further
// locking discipline applies. Rows are never rewritten.
func Append(dir string, rec Record) error {
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "open ledger %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "stat ledger %s", path)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			f.Close()
			return errors.Wrapf(err, "write ledger header to %s", path)
		}
	}
	if err := w.Write(rec.row()); err != nil {
		f.Close()
		return errors.Wrapf(err, "append to ledger %s", path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return errors.Wrapf(err, "flush ledger %s", path)
	}
	return f.Close()
}

func (r Record) row() []string {
	return []string{
		r.OriginName,
		r.ScanName,
		r.ScanPath,
		r.CreationDate.Format(DateLayout),
		fmtFloat(r.Translation.X), fmtFloat(r.Translation.Y), fmtFloat(r.Translation.Z),
		fmtFloat(r.Rotation.Imag), fmtFloat(r.Rotation.Jmag), fmtFloat(r.Rotation.Kmag), fmtFloat(r.Rotation.Real),
		fmtFloat(r.Scale.X), fmtFloat(r.Scale.Y), fmtFloat(r.Scale.Z),
		fmtFloat(r.Offset.X), fmtFloat(r.Offset.Y), fmtFloat(r.Offset.Z),
	}
}

// shortest round-trip representation, so 0.001 stays "0.001"
func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
