package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/hostplane/hostplane/internal/config"
)

// Init creates a host configuration file, interactively when a terminal is
// available.
func Init(ctx context.Context, outputPath string, nonInteractive bool) error {
	if outputPath == "" {
		outputPath = config.DefaultConfigFile
	}
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists, refusing to overwrite", outputPath)
	}

	var intent *config.Intent
	if !nonInteractive && isatty.IsTerminal(os.Stdin.Fd()) {
		var err error
		intent, err = config.RunWizard(ctx)
		if err != nil {
			return err
		}
	} else {
		intent = templateIntent()
	}

	if err := config.WriteFile(outputPath, intent); err != nil {
		return err
	}
	fmt.Printf("Wrote %s. Edit it, then run `hostplane deploy`.\n", outputPath)
	return nil
}

// templateIntent is the starting point written when the wizard is skipped.
func templateIntent() *config.Intent {
	intent := &config.Intent{
		Mode:        config.ModeLAN,
		LANSubnet:   "192.168.1.0/24",
		LANServerIP: "192.168.1.10",
	}
	intent.ApplyDefaults()
	return intent
}
