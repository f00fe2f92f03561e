// Command glyphpad is a terminal rich-text editor that highlights the code
// typed into it and embeds tables, images and linked scene files.
package main

import (
	"os"
)

// Build information injected via ldflags at build time.
var version = "dev"

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
