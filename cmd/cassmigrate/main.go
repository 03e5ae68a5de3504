package main

import (
	"context"
	"log"
	"os"

	"github.com/cassmigrate/cassmigrate/cmd/cassmigrate/cmd"
)

// NB: These are set by GoReleaser during a build.
var (
	version string
	commit  string
	date    string
)

func main() {
	if err := cmd.Run(context.Background(), cmd.Version{
		Version:   version,
		Commit:    commit,
		Timestamp: date,
	}, os.Args); err != nil {
		log.Fatal(err)
	}
}
