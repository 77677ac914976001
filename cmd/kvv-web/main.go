package main

import (
	"os"

	"tarediiran-industries.com/transit-cancellations/internal/web/dashboard"
)

func main() {
	os.Exit(dashboard.Main(os.Args[0], os.Args[1:], os.Stdout, os.Stderr))
}
