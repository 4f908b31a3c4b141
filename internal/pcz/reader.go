package pcz

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Record is one decoded point record with the coordinates kept in
// their stored quantized form.
type Record struct {
	X, Y, Z   int32
	Intensity uint16
	R, G, B   uint16
}

// Reader decodes a .pcz stream. Used by the verify subcommand and by
// tests.
type Reader struct {
	f   *os.File
	zr  *zstd.Decoder
	br  *bufio.Reader
	hdr Header
	rec []byte
}

// Open opens path and decodes the stream header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	zr, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "open zstd stream of %s", path)
	}
	r := &Reader{f: f, zr: zr, br: bufio.NewReader(zr)}
	if err := r.readHeader(); err != nil {
		zr.Close()
		f.Close()
		return nil, errors.Wrapf(err, "read header of %s", path)
	}
	r.rec = make([]byte, r.hdr.recordSize())
	return r, nil
}

func (r *Reader) readHeader() error {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return err
	}
	if !bytes.Equal(buf[:4], magic[:]) {
		return errors.Errorf("bad magic %q", buf[:4])
	}
	flags := buf[4]
	r.hdr.HasIntensity = flags&flagIntensity != 0
	r.hdr.HasColor = flags&flagColor != 0
	vals := make([]float64, 6)
	for i := range vals {
		vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[5+i*8:]))
	}
	r.hdr.Scale = r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]}
	r.hdr.Offset = r3.Vector{X: vals[3], Y: vals[4], Z: vals[5]}
	return nil
}

func (r *Reader) Header() Header {
	return r.hdr
}

// Next returns the next record, or io.EOF at the end of the stream. A
// stream truncated mid-record is an error.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if _, err := io.ReadFull(r.br, r.rec); err != nil {
		if err == io.EOF {
			return rec, io.EOF
		}
		return rec, errors.Wrap(err, "truncated point record")
	}
	rec.X = int32(binary.LittleEndian.Uint32(r.rec[0:]))
	rec.Y = int32(binary.LittleEndian.Uint32(r.rec[4:]))
	rec.Z = int32(binary.LittleEndian.Uint32(r.rec[8:]))
	off := 12
	if r.hdr.HasIntensity {
		rec.Intensity = binary.LittleEndian.Uint16(r.rec[off:])
		off += 2
	}
	if r.hdr.HasColor {
		rec.R = binary.LittleEndian.Uint16(r.rec[off:])
		rec.G = binary.LittleEndian.Uint16(r.rec[off+2:])
		rec.B = binary.LittleEndian.Uint16(r.rec[off+4:])
	}
	return rec, nil
}

// Resolve restores a record's coordinates through the declared scale
// and offset.
func (r *Reader) Resolve(rec Record) (x, y, z float64) {
	x = float64(rec.X)*r.hdr.Scale.X + r.hdr.Offset.X
	y = float64(rec.Y)*r.hdr.Scale.Y + r.hdr.Offset.Y
	z = float64(rec.Z)*r.hdr.Scale.Z + r.hdr.Offset.Z
	return x, y, z
}

func (r *Reader) Close() error {
	r.zr.Close()
	return r.f.Close()
}
