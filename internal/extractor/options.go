package extractor

// BatchSize caps how many points of a scan are held in memory at once.
// The streaming writer processes a scan in slices of at most this many
// points so peak memory stays independent of total scan size.
const BatchSize = 1_000_000

// ProgressFunc is invoked after each scan of a container completes.
type ProgressFunc func(containerPath string, scanName string, scanIndex int, scanCount int)

// Contains the options needed for the extraction core
type Options struct {
	Inputs           []string // input container files, or a single folder when FolderProcessing is set
	Radius           float64  // crop half-width in meters around each scan origin
	Spacing          float64  // minimum distance in meters between retained points within one batch
	FolderProcessing bool     // enables processing of all containers found in the input folder
	Recursive        bool     // recursive lookup of containers in subfolders
	OutputDir        string   // destination folder; derived from the first input's parent when empty

	Progress ProgressFunc // optional per-scan completion callback
}

// Validate rejects non-positive radius and spacing. It must run
// before any container is opened.
func (o *Options) Validate() error {
	if o.Radius <= 0 {
		return &InvalidParameterError{Name: "radius", Value: o.Radius}
	}
	if o.Spacing <= 0 {
		return &InvalidParameterError{Name: "spacing", Value: o.Spacing}
	}
	return nil
}
