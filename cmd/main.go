package main

import (
	"os"

	_ "time/tzdata"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
