package project

import (
	"github.com/spf13/pflag"
)

// Flag names shared by the CLI and ApplyFlags.
const (
	FlagColor          = "color"
	FlagMaxDiagnostics = "max-diagnostics"
	FlagUI             = "ui"
	FlagEntry          = "entry"
	FlagMaxDepth       = "max-depth"
	FlagRecord         = "record"
	FlagTrace          = "trace-level"
	FlagTraceOutput    = "trace-output"
	FlagTraceFormat    = "trace-format"
	FlagLessonsDir     = "lessons-dir"
)

// ApplyFlags overrides manifest values with flags the user set explicitly.
// Flags left at their defaults never shadow the manifest.
func (c *Config) ApplyFlags(flags *pflag.FlagSet) error {
	strs := map[string]*string{
		FlagColor:       &c.Run.Color,
		FlagUI:          &c.Run.UI,
		FlagEntry:       &c.Run.Entry,
		FlagRecord:      &c.Run.Record,
		FlagTrace:       &c.Trace.Level,
		FlagTraceOutput: &c.Trace.Output,
		FlagTraceFormat: &c.Trace.Format,
		FlagLessonsDir:  &c.Lessons.Dir,
	}
	for name, dst := range strs {
		if f := flags.Lookup(name); f != nil && f.Changed {
			v, err := flags.GetString(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}
	ints := map[string]*int{
		FlagMaxDiagnostics: &c.Run.MaxDiagnostics,
		FlagMaxDepth:       &c.Run.MaxDepth,
	}
	for name, dst := range ints {
		if f := flags.Lookup(name); f != nil && f.Changed {
			v, err := flags.GetInt(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}
	return c.Validate()
}
