package main

import (
	"os"

	"github.com/dshills/dirdiff/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
