package main

import (
	"os"

	"github.com/jottaiandra/lunnor-finance-hub-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
