// The main package for the plet-harvester executable.
package main

import (
	"github.com/marine-obs/plet-harvester/cmd"
)

// main defers all execution to the Cobra CLI tree.
func main() {
	cmd.Execute()
}
