package main

import (
	"os"

	"github.com/flowtask/flowtask/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
