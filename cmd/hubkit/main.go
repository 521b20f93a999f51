package main

import (
	"os"

	"github.com/dataworkshop/hubkit/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
