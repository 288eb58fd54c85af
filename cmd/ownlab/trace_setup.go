package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ownlab/internal/project"
	"ownlab/internal/trace"
)

// setupTracing initializes the tracer from the merged trace settings and
// attaches it to the command context. It returns a cleanup function and the
// ring buffer to dump if the command fails.
func setupTracing(cmd *cobra.Command, cfg project.TraceConfig, log *zap.Logger) (func(), *trace.RingTracer, error) {
	root := cmd.Root()

	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := root.PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	if level == trace.LevelError {
		mode = trace.ModeRing
	}
	output := cfg.Output
	if output == "" && mode != trace.ModeRing && mode != trace.ModeLog {
		output = "-"
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     traceFormat(cfg.Format),
		OutputPath: output,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
		Logger:     log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	root.SetContext(ctx)

	heartbeat := trace.StartHeartbeat(tracer, heartbeatInterval)

	cleanup := func() {
		heartbeat.Stop()
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, trace.RingOf(tracer), nil
}

func traceFormat(s string) trace.Format {
	switch s {
	case "text":
		return trace.FormatText
	case "ndjson":
		return trace.FormatNDJSON
	default:
		return trace.FormatAuto
	}
}
