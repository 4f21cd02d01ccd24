package version

import "github.com/fatih/color"

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the silgen CLI, with colorized
	// components. Its initializer calls functions, so -ldflags -X cannot
	// override it.
	Version = majorColor.Sprint("0") + "." + minorColor.Sprint("1") + "." + patchColor.Sprint("0") + "-dev"

	// GitCommit is an optional git commit hash, set via -ldflags.
	GitCommit = ""

	// GitMessage is an optional git commit subject line, set via -ldflags.
	GitMessage = ""

	// BuildDate is an optional build timestamp in ISO-8601, set via
	// -ldflags.
	BuildDate = ""
)
