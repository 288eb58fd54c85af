package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ownlab/internal/lesson"
	"ownlab/internal/project"
)

// loadManifest reads ownlab.toml from the working directory upwards and
// lets explicitly set flags override it.
func loadManifest(cmd *cobra.Command) (*project.Manifest, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	manifest, _, err := project.Load(wd)
	if err != nil {
		return nil, err
	}
	if err := manifest.Config.ApplyFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return manifest, nil
}

// loadLessons returns the embedded lessons followed by those from the
// configured lessons directory.
func loadLessons(manifest *project.Manifest) ([]lesson.Lesson, error) {
	lessons, err := lesson.Builtin()
	if err != nil {
		return nil, err
	}
	dir := manifest.LessonsDir()
	if strings.TrimSpace(dir) == "" {
		return lessons, nil
	}
	extra, err := lesson.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("lessons dir %s: %w", dir, err)
	}
	return append(lessons, extra...), nil
}
