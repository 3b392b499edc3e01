package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/api"
	"scribe/internal/captions"
	"scribe/internal/config"
	"scribe/internal/transcribe"
)

const (
	formatAuto  = "auto"
	formatTable = "table"
	formatJSON  = "json"
	formatVTT   = "vtt"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var model string
	var format string

	cmd := &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Transcribe a local WAV file without the HTTP service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, err := resolveFormat(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve audio path: %w", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read audio: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			pipeline := transcribe.New(transcribe.ConfigFrom(cfg), transcribe.WithLogger(logger))
			segments, err := pipeline.Transcribe(signalCtx, data, model)
			if err != nil {
				return fmt.Errorf("transcribe %s: %w", path, err)
			}
			return writeSegments(cmd, outputFormat, segments)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model file name inside the models directory (defaults to engine.default_model)")
	cmd.Flags().StringVarP(&format, "format", "f", formatAuto, "Output format: auto, table, json, or vtt")
	return cmd
}

// resolveFormat picks a table for terminals and JSON for pipes when format is auto.
func resolveFormat(format string, out io.Writer) (string, error) {
	switch value := strings.ToLower(strings.TrimSpace(format)); value {
	case "", formatAuto:
		if shouldColorize(out) {
			return formatTable, nil
		}
		return formatJSON, nil
	case formatTable, formatJSON, formatVTT:
		return value, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want auto, table, json, or vtt)", format)
	}
}

func writeSegments(cmd *cobra.Command, format string, segments []captions.Segment) error {
	out := cmd.OutOrStdout()
	switch format {
	case formatJSON:
		return writeJSON(cmd, api.FromSegments(segments))
	case formatVTT:
		_, err := io.WriteString(out, captions.Format(segments))
		return err
	default:
		if len(segments) == 0 {
			fmt.Fprintln(out, "No speech segments detected")
			return nil
		}
		rows := make([][]string, 0, len(segments))
		for i, seg := range segments {
			rows = append(rows, []string{strconv.Itoa(i + 1), seg.Start, seg.End, seg.Text})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"#", "Start", "End", "Text"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
		))
		return nil
	}
}
