package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"injekt/internal/manifest"
)

var initCmd = &cobra.Command{
	Use:   "init [world.toml|world.yaml]",
	Short: "Write a starter world",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := "world.toml"
	if len(args) == 1 {
		path = args[0]
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to get force flag: %w", err)
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	var buf bytes.Buffer
	if err := writeStarter(&buf, manifest.FormatOf(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s; try: injekt explain %s\n", path, path)
	return nil
}

func writeStarter(w io.Writer, format manifest.Format) error {
	doc := starterDocument()
	if format == manifest.FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode starter world: %w", err)
		}
		return enc.Close()
	}
	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode starter world: %w", err)
	}
	return nil
}

// starterDocument is a small world that resolves cleanly: a repository
// needing a database that is built from a config object, plus an optional
// logger that falls back to its default.
func starterDocument() manifest.Document {
	return manifest.Document{
		Module: "app",
		Classifiers: []manifest.Classifier{
			{Name: "app.Config"},
			{Name: "app.Db"},
			{Name: "app.Logger"},
			{Name: "app.Repo"},
		},
		Files: []manifest.File{{
			Path: "app/main.kt",
			Declarations: []manifest.Declaration{
				{Name: "app.config", Kind: "object", Type: "app.Config"},
				{Name: "app.db", Type: "app.Db", Params: []manifest.Param{{Name: "config", Type: "app.Config"}}},
				{Name: "app.repo", Kind: "constructor", Type: "app.Repo", Params: []manifest.Param{
					{Name: "db", Type: "app.Db"},
					{Name: "logger", Type: "app.Logger?", Default: true},
				}},
			},
		}},
		CallSites: []manifest.CallSiteDecl{{
			Name:     "main",
			File:     "app/main.kt",
			Requests: []manifest.Param{{Name: "repo", Type: "app.Repo"}},
		}},
	}
}
