package tools

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/scanwerk/scansplit/internal/extractor"
)

// keep in sync with container.Ext
const containerExt = ".scdb"

type FileFinder interface {
	GetContainersToProcess(opts *extractor.Options) []string
}

type StandardFileFinder struct{}

func NewStandardFileFinder() FileFinder {
	return &StandardFileFinder{}
}

func (f *StandardFileFinder) GetContainersToProcess(opts *extractor.Options) []string {
	// If folder processing is not enabled the containers are given directly,
	// otherwise look for containers inside the first input folder, eventually
	// excluding nested folders if the Recursive flag is disabled
	if !opts.FolderProcessing {
		return opts.Inputs
	}

	return f.getContainersFromInputFolder(opts)
}

func (f *StandardFileFinder) getContainersFromInputFolder(opts *extractor.Options) []string {
	var containers = make([]string, 0)

	root := opts.Inputs[0]
	baseInfo, _ := os.Stat(root)
	err := filepath.Walk(
		root,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() && !opts.Recursive && !os.SameFile(info, baseInfo) {
				return filepath.SkipDir
			} else {
				if strings.ToLower(filepath.Ext(info.Name())) == containerExt {
					containers = append(containers, path)
				}
			}
			return nil
		},
	)

	if err != nil {
		log.Fatal(err)
	}

	return containers
}
