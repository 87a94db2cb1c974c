package main

import (
	"os"

	"github.com/igorsilveira/helloext/cmd/helloext"
)

func main() {
	if err := helloext.Execute(); err != nil {
		os.Exit(1)
	}
}
