package ledger

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

func sampleRecord(name string) Record {
	return Record{
		OriginName:   "capture",
		ScanName:     name,
		ScanPath:     filepath.Join("output", name),
		CreationDate: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Translation:  r3.Vector{X: 1.5, Y: -2.25, Z: 3},
		Rotation:     quat.Number{Real: 0.5, Imag: -0.5, Jmag: 0.5, Kmag: -0.5},
		Scale:        r3.Vector{X: 0.001, Y: 0.001, Z: 0.001},
		Offset:       r3.Vector{X: 0, Y: 0, Z: 100},
	}
}

func readRows(t *testing.T, dir string) [][]string {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	return rows
}

func TestAppendCreatesHeaderOnFirstUse(t *testing.T) {
	dir := t.TempDir()
	if err := Append(dir, sampleRecord("capture-a.pcz")); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows := readRows(t, dir)
	if len(rows) != 2 {
		t.Fatalf("expected header plus one data row, got %d rows", len(rows))
	}
	wantHeader := "origin_name,scan_name,scan_path,creation_date," +
		"translation_x,translation_y,translation_z," +
		"rotation_x,rotation_y,rotation_z,rotation_w," +
		"scale_x,scale_y,scale_z,offset_x,offset_y,offset_z"
	if got := strings.Join(rows[0], ","); got != wantHeader {
		t.Fatalf("header mismatch:\n got %s\nwant %s", got, wantHeader)
	}
}

func TestAppendRowContent(t *testing.T) {
	dir := t.TempDir()
	if err := Append(dir, sampleRecord("capture-a.pcz")); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows := readRows(t, dir)
	row := rows[1]
	if row[0] != "capture" || row[1] != "capture-a.pcz" {
		t.Fatalf("unexpected name columns %v", row[:2])
	}
	if row[3] != "2026-01-02 03:04:05" {
		t.Fatalf("unexpected creation date %q", row[3])
	}
	// rotation columns are reordered to x,y,z,w
	if row[7] != "-0.5" || row[8] != "0.5" || row[9] != "-0.5" || row[10] != "0.5" {
		t.Fatalf("unexpected rotation columns %v", row[7:11])
	}
	if row[11] != "0.001" {
		t.Fatalf("expected shortest float formatting, got scale_x %q", row[11])
	}
	if row[16] != "100" {
		t.Fatalf("unexpected offset_z %q", row[16])
	}
}

// rows appear in completion order; content does not depend on order
func TestAppendIsOrderPreserving(t *testing.T) {
	dirAB := t.TempDir()
	dirBA := t.TempDir()

	a := sampleRecord("capture-a.pcz")
	b := sampleRecord("capture-b.pcz")

	for _, rec := range []Record{a, b} {
		if err := Append(dirAB, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	for _, rec := range []Record{b, a} {
		if err := Append(dirBA, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	ab := readRows(t, dirAB)
	ba := readRows(t, dirBA)
	if ab[1][1] != "capture-a.pcz" || ab[2][1] != "capture-b.pcz" {
		t.Fatalf("A,B order not preserved: %v %v", ab[1][1], ab[2][1])
	}
	if ba[1][1] != "capture-b.pcz" || ba[2][1] != "capture-a.pcz" {
		t.Fatalf("B,A order not preserved: %v %v", ba[1][1], ba[2][1])
	}
	// same record serializes identically regardless of position
	if strings.Join(ab[1], ",") != strings.Join(ba[2], ",") {
		t.Fatalf("row content depends on append order:\n%v\n%v", ab[1], ba[2])
	}
}
