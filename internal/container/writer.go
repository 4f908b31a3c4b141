package container

import (
	"database/sql"
	"encoding/binary"
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/scanwerk/scansplit/internal/data"
)

// ScanSpec describes a scan to be added to a container under
// construction. A zero GUID gets a fresh one generated. Nil scale or
// offset leaves the container columns NULL so readers apply the
// policy defaults.
type ScanSpec struct {
	GUID         uuid.UUID
	Name         string
	Translation  r3.Vector
	Rotation     quat.Number
	Scale        *r3.Vector
	Offset       *r3.Vector
	HasIntensity bool
	HasColor     bool
}

type scanState struct {
	spec      ScanSpec
	nextChunk int
}

// Writer builds a scan container. Used by the gen subcommand and by
// tests; production extraction only ever reads containers.
type Writer struct {
	db    *sql.DB
	path  string
	scans map[int64]*scanState
}

// Create creates a new container file at path, writing the schema and
// the capture timestamp.
func Create(path string, creationDate time.Time) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "create container %s", path)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "initialize container schema in %s", path)
	}
	_, err = db.Exec(`INSERT OR REPLACE INTO container_info (key, value) VALUES (?, ?)`,
		creationDateKey, creationDate.Format(DateLayout))
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "write creation date of %s", path)
	}
	return &Writer{db: db, path: path, scans: make(map[int64]*scanState)}, nil
}

func (w *Writer) Close() error {
	return w.db.Close()
}

// AddScan inserts a scan header row and returns the scan id to append
// point chunks under.
func (w *Writer) AddScan(spec ScanSpec) (int64, error) {
	if spec.GUID == uuid.Nil {
		spec.GUID = uuid.New()
	}
	res, err := w.db.Exec(`
		INSERT INTO scans (guid, name,
			translation_x, translation_y, translation_z,
			rotation_w, rotation_x, rotation_y, rotation_z,
			scale_x, scale_y, scale_z,
			offset_x, offset_y, offset_z,
			has_intensity, has_color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		spec.GUID.String(), spec.Name,
		spec.Translation.X, spec.Translation.Y, spec.Translation.Z,
		spec.Rotation.Real, spec.Rotation.Imag, spec.Rotation.Jmag, spec.Rotation.Kmag,
		axisOrNil(spec.Scale, 0), axisOrNil(spec.Scale, 1), axisOrNil(spec.Scale, 2),
		axisOrNil(spec.Offset, 0), axisOrNil(spec.Offset, 1), axisOrNil(spec.Offset, 2),
		spec.HasIntensity, spec.HasColor,
	)
	if err != nil {
		return 0, errors.Wrapf(err, "add scan %s to %s", spec.Name, w.path)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	w.scans[id] = &scanState{spec: spec}
	return id, nil
}

// AppendChunk packs one chunk of points and appends it to the scan's
// stream, bumping the header point count.
func (w *Writer) AppendChunk(scanID int64, pts []data.Point) error {
	st, ok := w.scans[scanID]
	if !ok {
		return errors.Errorf("unknown scan id %d in %s", scanID, w.path)
	}

	xyz := make([]byte, 0, len(pts)*xyzBytesPerPoint)
	for _, p := range pts {
		xyz = binary.LittleEndian.AppendUint64(xyz, math.Float64bits(p.X))
		xyz = binary.LittleEndian.AppendUint64(xyz, math.Float64bits(p.Y))
		xyz = binary.LittleEndian.AppendUint64(xyz, math.Float64bits(p.Z))
	}
	var intens, color []byte
	if st.spec.HasIntensity {
		intens = make([]byte, 0, len(pts)*intensityBytesPerPoint)
		for _, p := range pts {
			intens = binary.LittleEndian.AppendUint16(intens, p.Intensity)
		}
	}
	if st.spec.HasColor {
		color = make([]byte, 0, len(pts)*colorBytesPerPoint)
		for _, p := range pts {
			color = binary.LittleEndian.AppendUint16(color, p.R)
			color = binary.LittleEndian.AppendUint16(color, p.G)
			color = binary.LittleEndian.AppendUint16(color, p.B)
		}
	}

	_, err := w.db.Exec(`
		INSERT INTO point_chunks (scan_id, chunk_seq, num_points, xyz_blob, intensity_blob, color_blob)
		VALUES (?, ?, ?, ?, ?, ?)`,
		scanID, st.nextChunk, len(pts), xyz, intens, color)
	if err != nil {
		return errors.Wrapf(err, "append chunk %d to scan %d of %s", st.nextChunk, scanID, w.path)
	}
	if _, err := w.db.Exec(`UPDATE scans SET num_points = num_points + ? WHERE scan_id = ?`, len(pts), scanID); err != nil {
		return errors.Wrapf(err, "update point count of scan %d in %s", scanID, w.path)
	}
	st.nextChunk++
	return nil
}

// AppendRawChunk stores a chunk row without validating blob lengths.
// Tests use it to model corrupted containers.
func (w *Writer) AppendRawChunk(scanID int64, numPoints int, xyz, intens, color []byte) error {
	st, ok := w.scans[scanID]
	if !ok {
		return errors.Errorf("unknown scan id %d in %s", scanID, w.path)
	}
	_, err := w.db.Exec(`
		INSERT INTO point_chunks (scan_id, chunk_seq, num_points, xyz_blob, intensity_blob, color_blob)
		VALUES (?, ?, ?, ?, ?, ?)`,
		scanID, st.nextChunk, numPoints, xyz, intens, color)
	if err != nil {
		return err
	}
	if _, err := w.db.Exec(`UPDATE scans SET num_points = num_points + ? WHERE scan_id = ?`, numPoints, scanID); err != nil {
		return err
	}
	st.nextChunk++
	return nil
}

func axisOrNil(v *r3.Vector, axis int) interface{} {
	if v == nil {
		return nil
	}
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
