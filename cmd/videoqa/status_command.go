package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"videoqa/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the video service and local paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Configuration", colorize)
			configLine := ctx.configPath
			if !ctx.configSeen {
				configLine += " (not found; defaults used)"
			}
			lines = append(lines,
				renderStatusLine("Config", statusInfo, configLine, colorize),
				renderStatusLine("Log file", statusInfo, cfg.LogPath(), colorize),
				"",
			)
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			for _, result := range preflight.RunAll(commandCtx(cmd), cfg, client) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				} else if strings.EqualFold(result.Detail, "disabled") {
					kind = statusInfo
				}
				lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}
