package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/dclone/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the bundled config template to the --config path.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err == nil {
		r.logger.Info("config file already exists", "path", r.configPath)
		return r.writePlain("✓ Config already exists at %s\n", r.configPath)
	}

	if err := createConfig(r.configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", r.configPath)

	r.writePlain("✓ Config written to %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Create an OAuth client (Desktop or Web) with the Drive API enabled\n")
	r.writePlain("2. Set credentials.google.client_id and client_secret in %s\n", r.configPath)
	r.writePlain("3. Change server.session_secret before running 'dclone serve'\n")
	r.writePlain("4. Run 'dclone auth login'\n")
	return nil
}

func createConfig(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return shared.CreateConfigFile(path)
}
