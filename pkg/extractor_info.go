package pkg

import (
	"log"

	"github.com/scanwerk/scansplit/internal/container"
	"github.com/scanwerk/scansplit/tools"
)

// RunInfo prints a summary of one container: creation date, scan count
// and every scan header.
func RunInfo(path string) error {
	cont, err := container.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = cont.Close() }()

	created, err := cont.CreationDate()
	if err != nil {
		return err
	}
	count, err := cont.ScanCount()
	if err != nil {
		return err
	}
	headers, err := cont.Headers()
	if err != nil {
		return err
	}

	log.Println("container", path)
	log.Println("creation_date", created.Format(container.DateLayout))
	log.Println("scan_count", count)
	for i, h := range headers {
		log.Printf("scan %d %s", i, tools.FmtJSONString(h))
	}
	return nil
}
