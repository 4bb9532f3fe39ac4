package arbor

import _ "embed"

// Version is the release version of the arbor module.
//
//go:embed VERSION
var Version string
