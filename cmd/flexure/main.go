// Command flexure computes elastic-plate flexure over a raster workspace.
package main

import (
	"os"

	"github.com/banshee-data/flexure/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
