package main

import (
	"github.com/diogo/llmcouncil/internal/commands"
)

// Version info, overridden at build time via -ldflags
var (
	version   = "0.1.0"
	buildTime = "unknown"
)

func main() {
	commands.Version = version
	commands.BuildTime = buildTime
	commands.Execute()
}
