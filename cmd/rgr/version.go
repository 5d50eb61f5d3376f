package main

import (
	"io"

	"rgr/internal/version"
)

func printVersion(out io.Writer) error {
	return version.WritePretty(out, version.Collect())
}
