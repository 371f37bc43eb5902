package main

import (
	"os"

	"github.com/abdul-hamid-achik/imgedit/internal/imgedit/cli"
)

func main() {
	os.Exit(cli.Execute())
}
