package tools

import (
	"flag"
)

const (
	CommandExtract = "extract"
	CommandInfo    = "info"
	CommandVerify  = "verify"
	CommandGen     = "gen"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type FlagsForCommandExtract struct {
	Input            *string  `json:"input"`
	Output           *string  `json:"output"`
	Radius           *float64 `json:"radius"`
	Spacing          *float64 `json:"spacing"`
	FolderProcessing *bool
	Recursive        *bool
	Silent           *bool
	LogTimestamp     *bool
	Help             *bool

	// Rest holds any extra container paths given as positional args.
	Rest []string
}

type FlagsForCommandInfo struct {
	Input *string `json:"input"`
}

type FlagsForCommandVerify struct {
	Input  *string  `json:"input"`
	Output *string  `json:"output"`
	Radius *float64 `json:"radius"`
}

type FlagsForCommandGen struct {
	Output        *string `json:"output"`
	NumScans      *int
	PointsPerScan *int
	Spread        *float64
	Intensity     *bool
	Color         *bool
	Seed          *int
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "v", false, "Displays the version of scansplit.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func ParseFlagsForCommandExtract(args []string) FlagsForCommandExtract {
	flagCommand := flag.NewFlagSet("command-extract", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input scan container file/folder. Further container files can follow as positional arguments.")
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output folder. Defaults to an 'output' folder next to the first input.")
	radius := defineFloat64FlagCommand(flagCommand, "radius", "b", 10, "Crop radius in meters: half-width of the axis-aligned box kept around each scan origin.")
	spacing := defineFloat64FlagCommand(flagCommand, "spacing", "p", 0.005, "Thinning spacing in meters: minimum distance enforced between retained points within one batch.")
	folderProcessing := defineBoolFlagCommand(flagCommand, "folder", "f", false, "Enables processing of all scan containers from the input folder. Input must be a folder if specified.")
	recursive := defineBoolFlagCommand(flagCommand, "recursive", "r", false, "Enables recursive lookup for scan containers inside subfolders.")
	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")
	logTimestamp := defineBoolFlagCommand(flagCommand, "timestamp", "t", false, "Adds timestamp to log messages.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")

	flagCommand.Parse(args)

	return FlagsForCommandExtract{
		Input:            input,
		Output:           output,
		Radius:           radius,
		Spacing:          spacing,
		FolderProcessing: folderProcessing,
		Recursive:        recursive,
		Silent:           silent,
		LogTimestamp:     logTimestamp,
		Help:             help,
		Rest:             flagCommand.Args(),
	}
}

func ParseFlagsForCommandInfo(args []string) FlagsForCommandInfo {
	flagCommand := flag.NewFlagSet("command-info", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the scan container to summarize.")

	flagCommand.Parse(args)

	return FlagsForCommandInfo{
		Input: input,
	}
}

func ParseFlagsForCommandVerify(args []string) FlagsForCommandVerify {
	flagCommand := flag.NewFlagSet("command-verify", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the scan container whose outputs should be verified.")
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the folder holding the extracted outputs. Defaults to an 'output' folder next to the input.")
	radius := defineFloat64FlagCommand(flagCommand, "radius", "b", 10, "Crop radius in meters the outputs were extracted with.")

	flagCommand.Parse(args)

	return FlagsForCommandVerify{
		Input:  input,
		Output: output,
		Radius: radius,
	}
}

func ParseFlagsForCommandGen(args []string) FlagsForCommandGen {
	flagCommand := flag.NewFlagSet("command-gen", flag.ExitOnError)

	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the container file to generate.")
	numScans := defineIntFlagCommand(flagCommand, "scans", "n", 2, "Number of scans to generate.")
	pointsPerScan := defineIntFlagCommand(flagCommand, "points", "m", 100000, "Number of points per scan.")
	spread := defineFloat64FlagCommand(flagCommand, "spread", "w", 25, "Half-width in meters of the synthetic point cloud around each scan origin.")
	intensity := defineBoolFlagCommand(flagCommand, "intensity", "", true, "Adds an intensity channel to the generated scans.")
	color := defineBoolFlagCommand(flagCommand, "color", "", true, "Adds RGB color channels to the generated scans.")
	seed := defineIntFlagCommand(flagCommand, "seed", "", 1, "Seed for the synthetic point generator.")

	flagCommand.Parse(args)

	return FlagsForCommandGen{
		Output:        output,
		NumScans:      numScans,
		PointsPerScan: pointsPerScan,
		Spread:        spread,
		Intensity:     intensity,
		Color:         color,
		Seed:          seed,
	}
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
