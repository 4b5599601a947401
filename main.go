package main

import (
	"os"

	"github.com/aitutor/tutorchat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
