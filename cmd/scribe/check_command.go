package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/deps"
	"scribe/internal/preflight"
	"scribe/internal/transcribe"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the engine binary and models directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()

			statuses := deps.Check(cfg)
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				rows = append(rows, []string{
					status.Name,
					yesNo(status.Available),
					status.Command,
					status.Detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Dependency", "Available", "Path", "Detail"},
				rows,
				nil,
			))

			checks := preflight.RunAll(cfg, false)
			checkRows := make([][]string, 0, len(checks))
			for _, result := range checks {
				checkRows = append(checkRows, []string{result.Name, passFail(result.Passed), result.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, checkRows, nil))

			pipeline := transcribe.New(transcribe.ConfigFrom(cfg))
			models, err := pipeline.Models()
			switch {
			case err != nil:
				fmt.Fprintf(out, "Models: unavailable (%v)\n", err)
			case len(models) == 0:
				fmt.Fprintln(out, "Models: none installed")
			default:
				fmt.Fprintf(out, "Models: %s (default %s)\n", strings.Join(models, ", "), pipeline.DefaultModel())
			}

			if !deps.Healthy(statuses) {
				return errors.New("required dependencies are unavailable")
			}
			if failed := preflight.Failed(checks); len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			fmt.Fprintln(out, "All dependencies available")
			return nil
		},
	}
}

func passFail(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAIL"
}
