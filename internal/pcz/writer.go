// Package pcz implements the compressed point stream written once per
// extracted scan. A .pcz file is a zstd stream holding a fixed header
// (channel flags plus the per-axis scale and offset declared by the
// scan) followed by fixed-width point records: three int32 scaled
// coordinates, an optional uint16 intensity and an optional trio of
// uint16 color channels. Records are appended batch by batch, so
// memory use is independent of the total point count.
package pcz

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/scanwerk/scansplit/internal/data"
)

// Ext is the output point cloud file extension.
const Ext = ".pcz"

var magic = [4]byte{'P', 'C', 'Z', '1'}

const (
	flagIntensity = 1 << 0
	flagColor     = 1 << 1
)

// headerSize is magic + flags byte + scale and offset as 3 float64 each.
const headerSize = 4 + 1 + 48

// Header declares the record layout of one file: which optional
// channels are present and the scale/offset quantization applied to
// the coordinates.
type Header struct {
	HasIntensity bool
	HasColor     bool
	Scale        r3.Vector
	Offset       r3.Vector
}

func (h Header) recordSize() int {
	n := 12
	if h.HasIntensity {
		n += 2
	}
	if h.HasColor {
		n += 6
	}
	return n
}

// Writer streams point records into a zstd-compressed file.
type Writer struct {
	f       *os.File
	zw      *zstd.Encoder
	hdr     Header
	n       int64
	scratch []byte
}

// NewWriter creates the file at path and writes the stream header.
func NewWriter(path string, hdr Header) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "open zstd stream for %s", path)
	}
	w := &Writer{f: f, zw: zw, hdr: hdr}
	if err := w.writeHeader(); err != nil {
		zw.Close()
		f.Close()
		return nil, errors.Wrapf(err, "write header of %s", path)
	}
	return w, nil
}

func (w *Writer) writeHeader() error {
	buf := make([]byte, 0, headerSize)
	buf = append(buf, magic[:]...)
	var flags byte
	if w.hdr.HasIntensity {
		flags |= flagIntensity
	}
	if w.hdr.HasColor {
		flags |= flagColor
	}
	buf = append(buf, flags)
	for _, v := range []float64{
		w.hdr.Scale.X, w.hdr.Scale.Y, w.hdr.Scale.Z,
		w.hdr.Offset.X, w.hdr.Offset.Y, w.hdr.Offset.Z,
	} {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	_, err := w.zw.Write(buf)
	return err
}

// Append quantizes the points against the declared scale and offset
// and appends them to the stream.
func (w *Writer) Append(pts []data.Point) error {
	buf := w.scratch
	if cap(buf) < len(pts)*w.hdr.recordSize() {
		buf = make([]byte, 0, len(pts)*w.hdr.recordSize())
	}
	buf = buf[:0]
	for _, p := range pts {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(quantize(p.X, w.hdr.Scale.X, w.hdr.Offset.X)))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(quantize(p.Y, w.hdr.Scale.Y, w.hdr.Offset.Y)))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(quantize(p.Z, w.hdr.Scale.Z, w.hdr.Offset.Z)))
		if w.hdr.HasIntensity {
			buf = binary.LittleEndian.AppendUint16(buf, p.Intensity)
		}
		if w.hdr.HasColor {
			buf = binary.LittleEndian.AppendUint16(buf, p.R)
			buf = binary.LittleEndian.AppendUint16(buf, p.G)
			buf = binary.LittleEndian.AppendUint16(buf, p.B)
		}
	}
	w.scratch = buf[:0]
	if _, err := w.zw.Write(buf); err != nil {
		return errors.Wrapf(err, "append %d points to %s", len(pts), w.f.Name())
	}
	w.n += int64(len(pts))
	return nil
}

func quantize(v, scale, offset float64) int32 {
	return int32(math.Round((v - offset) / scale))
}

// NumPoints returns how many points have been appended so far.
func (w *Writer) NumPoints() int64 {
	return w.n
}

// Close flushes the compressed stream and closes the file.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		w.f.Close()
		return errors.Wrapf(err, "close zstd stream of %s", w.f.Name())
	}
	return w.f.Close()
}
