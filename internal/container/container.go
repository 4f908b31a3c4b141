// Package container reads and writes multi-scan point cloud
// containers. A container is a single SQLite database file holding the
// capture session metadata, one header row per scan and the per-scan
// point streams packed into chunk blobs.
package container

import (
	"database/sql"
	_ "embed"
	"encoding/binary"
	"math"
	"os"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
	_ "modernc.org/sqlite"

	"github.com/scanwerk/scansplit/internal/data"
	"github.com/scanwerk/scansplit/internal/extractor"
)

// Ext is the scan container file extension.
const Ext = ".scdb"

// DefaultScale is the sub-millimeter coordinate quantization assumed
// for scans that do not declare per-axis scaling. Missing offsets
// default to zero. Policy defaults, not errors.
const DefaultScale = 0.001

// DateLayout is the format of the container creation timestamp.
const DateLayout = "2006-01-02 15:04:05"

const creationDateKey = "creation_date"

// schema.sql contains the SQL statements for creating the container
// schema: session metadata, scan headers and point chunk tables.
//
//go:embed schema.sql
var schemaSQL string

const (
	xyzBytesPerPoint       = 24
	intensityBytesPerPoint = 2
	colorBytesPerPoint     = 6
)

// ScanHeader carries the per-scan fields needed to parameterize
// extraction and to populate the coordinate ledger. Immutable once
// read from the container.
type ScanHeader struct {
	ID           int64
	GUID         uuid.UUID
	Name         string
	Translation  r3.Vector
	Rotation     quat.Number // unit quaternion, real part first in storage
	Scale        r3.Vector
	Offset       r3.Vector
	NumPoints    int64
	HasIntensity bool
	HasColor     bool
}

// Container is an open multi-scan container with read access.
type Container struct {
	db   *sql.DB
	path string
}

// Open opens an existing container for reading. The path is
// stat-checked before the driver sees it: sqlite would otherwise
// create an empty database at a mistyped path instead of failing.
func Open(path string) (*Container, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &extractor.NotFoundError{Path: path}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open container %s", path)
	}
	return &Container{db: db, path: path}, nil
}

func (c *Container) Close() error {
	return c.db.Close()
}

func (c *Container) Path() string {
	return c.path
}

// CreationDate returns the container-level capture timestamp.
func (c *Container) CreationDate() (time.Time, error) {
	var v string
	err := c.db.QueryRow(`SELECT value FROM container_info WHERE key = ?`, creationDateKey).Scan(&v)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "read creation date of %s", c.path)
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse creation date of %s", c.path)
	}
	return t, nil
}

// ScanCount returns the number of scans stored in the container.
func (c *Container) ScanCount() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM scans`).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "count scans of %s", c.path)
	}
	return n, nil
}

// Headers returns every scan header in scan order.
func (c *Container) Headers() ([]ScanHeader, error) {
	rows, err := c.db.Query(`
		SELECT scan_id, guid, name,
		       translation_x, translation_y, translation_z,
		       rotation_w, rotation_x, rotation_y, rotation_z,
		       scale_x, scale_y, scale_z,
		       offset_x, offset_y, offset_z,
		       num_points, has_intensity, has_color
		FROM scans ORDER BY scan_id`)
	if err != nil {
		return nil, errors.Wrapf(err, "read scan headers of %s", c.path)
	}
	defer rows.Close()

	var headers []ScanHeader
	for rows.Next() {
		var (
			h                      ScanHeader
			guid                   string
			sx, sy, sz, ox, oy, oz sql.NullFloat64
		)
		err := rows.Scan(
			&h.ID, &guid, &h.Name,
			&h.Translation.X, &h.Translation.Y, &h.Translation.Z,
			&h.Rotation.Real, &h.Rotation.Imag, &h.Rotation.Jmag, &h.Rotation.Kmag,
			&sx, &sy, &sz,
			&ox, &oy, &oz,
			&h.NumPoints, &h.HasIntensity, &h.HasColor,
		)
		if err != nil {
			return nil, errors.Wrapf(err, "decode scan header of %s", c.path)
		}
		h.GUID, err = uuid.Parse(guid)
		if err != nil {
			return nil, errors.Wrapf(err, "scan %s of %s has malformed guid", h.Name, c.path)
		}
		h.Scale = r3.Vector{
			X: nullOr(sx, DefaultScale),
			Y: nullOr(sy, DefaultScale),
			Z: nullOr(sz, DefaultScale),
		}
		h.Offset = r3.Vector{
			X: nullOr(ox, 0),
			Y: nullOr(oy, 0),
			Z: nullOr(oz, 0),
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "read scan headers of %s", c.path)
	}
	return headers, nil
}

func nullOr(v sql.NullFloat64, def float64) float64 {
	if v.Valid {
		return v.Float64
	}
	return def
}

// Points returns a cursor over the scan's point stream in chunk order.
func (c *Container) Points(h ScanHeader) (*PointCursor, error) {
	rows, err := c.db.Query(`
		SELECT num_points, xyz_blob, intensity_blob, color_blob
		FROM point_chunks WHERE scan_id = ? ORDER BY chunk_seq`, h.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "read points of scan %s", h.Name)
	}
	return &PointCursor{rows: rows, header: h}, nil
}

// PointCursor streams decoded point chunks of one scan.
type PointCursor struct {
	rows   *sql.Rows
	header ScanHeader
}

// Next returns the next chunk of points, or (nil, nil) at the end of
// the stream. A chunk whose blob lengths disagree with its declared
// point count or with the scan's channel flags is an error.
func (pc *PointCursor) Next() ([]data.Point, error) {
	if !pc.rows.Next() {
		if err := pc.rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	var (
		n                  int
		xyz, intens, color []byte
	)
	if err := pc.rows.Scan(&n, &xyz, &intens, &color); err != nil {
		return nil, err
	}
	return decodeChunk(pc.header, n, xyz, intens, color)
}

func (pc *PointCursor) Close() error {
	return pc.rows.Close()
}

func decodeChunk(h ScanHeader, n int, xyz, intens, color []byte) ([]data.Point, error) {
	if len(xyz) != n*xyzBytesPerPoint {
		return nil, errors.Errorf("xyz blob holds %d bytes for %d declared points", len(xyz), n)
	}
	if h.HasIntensity && len(intens) != n*intensityBytesPerPoint {
		return nil, errors.Errorf("intensity blob holds %d bytes for %d declared points", len(intens), n)
	}
	if h.HasColor && len(color) != n*colorBytesPerPoint {
		return nil, errors.Errorf("color blob holds %d bytes for %d declared points", len(color), n)
	}

	pts := make([]data.Point, n)
	for i := 0; i < n; i++ {
		off := i * xyzBytesPerPoint
		pts[i].X = math.Float64frombits(binary.LittleEndian.Uint64(xyz[off:]))
		pts[i].Y = math.Float64frombits(binary.LittleEndian.Uint64(xyz[off+8:]))
		pts[i].Z = math.Float64frombits(binary.LittleEndian.Uint64(xyz[off+16:]))
		if h.HasIntensity {
			pts[i].Intensity = binary.LittleEndian.Uint16(intens[i*intensityBytesPerPoint:])
		}
		if h.HasColor {
			off = i * colorBytesPerPoint
			pts[i].R = binary.LittleEndian.Uint16(color[off:])
			pts[i].G = binary.LittleEndian.Uint16(color[off+2:])
			pts[i].B = binary.LittleEndian.Uint16(color[off+4:])
		}
	}
	return pts, nil
}
