package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ytproc/internal/config"
)

const envTemplate = `MONGODB_URI="mongodb://localhost:27017"
DB_NAME="youtube_processor"
DOWNLOAD_DIR="./data/downloads"
OPENAI_API_KEY="your-api-key-here"
USER_AGENT="Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
`

var scaffoldDirs = []string{
	filepath.Join("data", "downloads"),
	filepath.Join("data", "comments"),
	filepath.Join("data", "output"),
	"logs",
	"staging",
}

func newInitCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Scaffold a project directory with config and data folders",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return scaffoldProject(cmd, root)
		},
	}
	cmd.Annotations = map[string]string{"skipConfigLoad": "true"}
	return cmd
}

func scaffoldProject(cmd *cobra.Command, root string) error {
	out := cmd.OutOrStdout()

	for _, dir := range scaffoldDirs {
		path := filepath.Join(root, dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
		fmt.Fprintf(out, "Created %s/\n", path)
	}

	configPath := filepath.Join(root, "ytproc.toml")
	if fileExists(configPath) {
		fmt.Fprintf(out, "Kept existing %s\n", configPath)
	} else {
		if err := config.CreateSample(configPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Created %s\n", configPath)
	}

	envPath := filepath.Join(root, ".env")
	if fileExists(envPath) {
		fmt.Fprintf(out, "Kept existing %s\n", envPath)
	} else {
		if err := os.WriteFile(envPath, []byte(envTemplate), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", envPath, err)
		}
		fmt.Fprintf(out, "Created %s\n", envPath)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintf(out, "  1. Edit %s and set your API keys\n", configPath)
	fmt.Fprintln(out, "  2. Start MongoDB")
	fmt.Fprintln(out, "  3. Queue a video with: ytproc create <url>")
	fmt.Fprintln(out, "  4. Run the service with: ytproc run")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
