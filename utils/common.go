package utils

import (
	"fmt"
	"time"
)

func TimeTrack(start time.Time, name string) {
	fmt.Printf("%s took %s\n", name, time.Since(start))
}

func VerbosePrint(format string, a ...interface{}) (n int, err error) {
	if Opts().Verbose() {
		return fmt.Printf(format, a...)
	}
	return 0, nil
}

// CanColorize turns a Sprint-style colorizer off when colorization is
// disabled by flag.
func CanColorize(f func(...interface{}) string) func(...interface{}) string {
	if Opts().NoColorize() {
		return fmt.Sprint
	}
	return f
}
