package main

import (
	"os"

	"tarediiran-industries.com/transit-cancellations/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
