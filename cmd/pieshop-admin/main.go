package main

import (
	"context"
	"os"
)

var buildtime string
var version string

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
