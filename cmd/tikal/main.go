package main

import (
	"os"

	"tikalinvest/internal/adapters/cli"
)

func main() {
	os.Exit(cli.Execute())
}
