package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/handiism/audiobook-downloader/internal/config"
	"github.com/handiism/audiobook-downloader/internal/tui"
)

type args struct {
	Config string `arg:"-c,--config" help:"settings file (JSON or YAML)"`
}

func main() {
	var a args
	arg.MustParse(&a)

	settings := config.DefaultSettings()
	if a.Config != "" {
		var err error
		settings, err = config.Load(a.Config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
