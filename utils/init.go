package utils

import (
	"flag"
	"log"
)

type options struct {
	outputFormat string
	noColorize   bool
	verbose      bool
	visualize    bool
}

var opts = &options{}

type optInterface struct{}

func Opts() optInterface {
	return optInterface{}
}

func (optInterface) NoColorize() bool {
	return opts.noColorize
}

func (optInterface) OutputFormat() string {
	return opts.outputFormat
}

func (optInterface) Verbose() bool {
	return opts.verbose
}

func (optInterface) Visualize() bool {
	return opts.visualize
}

func init() {
	flag.StringVar(&(opts.outputFormat), "format", "svg", "output file format [svg | png | jpg | ...]")
	flag.BoolVar(&(opts.noColorize), "no-colorize", false, "Disable pretty printer colorization")
	flag.BoolVar(&(opts.verbose), "verbose", false, "enable verbose output")
	flag.BoolVar(&(opts.visualize), "visualize", false, "enable visualization of constraint graphs")

	// Set up logging
	log.SetFlags(log.Ltime | log.Lshortfile)
}

// ParseArgs parses command line flags. Calling flag.Parse in init
// messes up unit tests, so hosts call this explicitly.
func ParseArgs() {
	flag.Parse()
}
