package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/scanwerk/scansplit/internal/extractor"
	"github.com/scanwerk/scansplit/pkg"
	"github.com/scanwerk/scansplit/tools"
)

const VERSION = "1.0.0"

const logo = `
                               _ _ _
 ___  ___ __ _ _ __  ___ _ __ | (_) |_
/ __|/ __/ _  | '_ \/ __| '_ \| | | __|
\__ \ (_| (_| | | | \__ \ |_) | | | |_
|___/\___\__,_|_| |_|___/ .__/|_|_|\__|
 per-scan crop + thin   |_| extractor
 Copyright YYYY - scanwerk
`

func main() {
	log.SetPrefix("[scansplit] ")
	log.SetFlags(log.LUTC | log.Ldate | log.Lmicroseconds)

	flagsGlobal := tools.ParseFlagsGlobal()

	if *flagsGlobal.Version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		if *flagsGlobal.Help {
			showHelp()
			return
		}
		log.Fatal("Please specify a subcommand [extract|info|verify|gen].")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandExtract:
		mainCommandExtract(args)
	case tools.CommandInfo:
		mainCommandInfo(args)
	case tools.CommandVerify:
		mainCommandVerify(args)
	case tools.CommandGen:
		mainCommandGen(args)
	default:
		log.Fatalf("Unrecognized command [%q]. Command must be one of [extract|info|verify|gen]", cmd)
	}
}

func mainCommandExtract(args []string) {
	flags := tools.ParseFlagsForCommandExtract(args)

	if *flags.Help {
		showHelp()
		return
	}

	// set logging and timestamp logging
	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if !*flags.LogTimestamp {
		tools.DisableLoggerTimestamp()
	}

	opts := &extractor.Options{
		Radius:           *flags.Radius,
		Spacing:          *flags.Spacing,
		FolderProcessing: *flags.FolderProcessing,
		Recursive:        *flags.Recursive,
		OutputDir:        *flags.Output,
	}
	if *flags.Input != "" {
		opts.Inputs = append(opts.Inputs, *flags.Input)
	}
	opts.Inputs = append(opts.Inputs, flags.Rest...)

	// Validate options; invalid parameters are rejected here, before
	// any container is opened
	if msg, res := validateOptionsForCommandExtract(opts); !res {
		log.Fatal("Error parsing input parameters: " + msg)
	}

	opts.Progress = func(containerPath string, scanName string, scanIndex int, scanCount int) {
		tools.LogOutput(fmt.Sprintf("done scan %d/%d [%s]", scanIndex+1, scanCount, scanName))
	}

	// an interrupt completes the current batch, then stops
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Starts the extractor
	// defer timeTrack(time.Now(), "extractor")
	err := pkg.NewExtractor(tools.NewStandardFileFinder()).RunExtractor(ctx, opts)

	if err != nil {
		log.Fatal("Error while extracting: ", err)
	} else {
		tools.LogOutput("Extraction Completed")
	}
}

// Validates the input options provided to the command line tool
// checking that inputs exist and parameters are positive
func validateOptionsForCommandExtract(opts *extractor.Options) (string, bool) {
	if len(opts.Inputs) == 0 {
		return "no input containers given", false
	}
	if err := opts.Validate(); err != nil {
		return err.Error(), false
	}
	for _, in := range opts.Inputs {
		if _, err := os.Stat(in); os.IsNotExist(err) {
			return "input file/folder not found: " + in, false
		}
	}
	if opts.FolderProcessing && len(opts.Inputs) != 1 {
		return "folder processing takes exactly one input folder", false
	}
	return "", true
}

func mainCommandInfo(args []string) {
	flags := tools.ParseFlagsForCommandInfo(args)

	if *flags.Input == "" {
		log.Fatal("Error parsing input parameters: no input container given")
	}
	if err := pkg.RunInfo(*flags.Input); err != nil {
		log.Fatal("Error while reading container: ", err)
	}
}

func mainCommandVerify(args []string) {
	flags := tools.ParseFlagsForCommandVerify(args)

	if *flags.Input == "" {
		log.Fatal("Error parsing input parameters: no input container given")
	}
	if *flags.Radius <= 0 {
		log.Fatal("Error parsing input parameters: radius must be a positive number")
	}
	if err := pkg.RunVerify(*flags.Input, *flags.Output, *flags.Radius); err != nil {
		log.Fatal("Error while verifying: ", err)
	}
}

func mainCommandGen(args []string) {
	flags := tools.ParseFlagsForCommandGen(args)

	opts := &pkg.GenOptions{
		Output:        *flags.Output,
		NumScans:      *flags.NumScans,
		PointsPerScan: *flags.PointsPerScan,
		Spread:        *flags.Spread,
		WithIntensity: *flags.Intensity,
		WithColor:     *flags.Color,
		Seed:          int64(*flags.Seed),
	}
	if err := pkg.RunGen(opts); err != nil {
		log.Fatal("Error while generating container: ", err)
	}
	tools.LogOutput("Generation Completed")
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("scansplit is a tool that splits multi-scan point cloud containers into cropped, thinned, compressed per-scan files and records each scan's transform for reassembly")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Command line flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
