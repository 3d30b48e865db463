package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"apod/internal/preflight"
	"apod/internal/services"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check cache directories, API access, and wallpaper integration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var api preflight.InfoFetcher
			if !offline {
				client, err := ctx.newClient()
				if err != nil {
					return err
				}
				api = client
			}

			results := preflight.RunAll(ctx.requestContext(cmd), cfg, api)
			if ctx.jsonMode() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				pass, fail := color.New(color.FgGreen), color.New(color.FgRed, color.Bold)
				if !isTerminal(out) {
					pass.DisableColor()
					fail.DisableColor()
				}
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					status := pass.Sprint("ok")
					if !r.Passed {
						status = fail.Sprint("FAIL")
					}
					rows = append(rows, []string{r.Name, status, r.Detail})
				}
				fmt.Fprintln(out, renderTable(out, []column{{title: "Check"}, {title: "Status"}, {title: "Detail", wrap: 64}}, rows))
			}
			if preflight.Failed(results) {
				return services.Wrap(services.ErrConfiguration, "cli", "doctor", "one or more checks failed", nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the APOD API request")
	return cmd
}
