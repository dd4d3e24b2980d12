package main

import (
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/ariondjunior/tapajos/internal/adapter/http/dto"
)

func reportsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reports",
		Aliases: []string{"report"},
		Short:   "Summary and reconciliation reports",
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Pending, overdue and settled totals with bank positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := c.client()
			if err != nil {
				return err
			}

			var resp dto.SummaryResponse
			if err := client.do(cmd.Context(), "GET", "/api/v1/reports/summary", nil, &resp); err != nil {
				return err
			}

			if c.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			return writeMarkdown(cmd.OutOrStdout(), c.summaryMarkdown(&resp), c.output == outputMarkdown)
		},
	}

	reconciliationCmd := &cobra.Command{
		Use:   "reconciliation [bank-id]",
		Short: "Check bank balances and settlements against the movements",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := c.client()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				var resp dto.ReconciliationResponse
				path := "/api/v1/banks/" + url.PathEscape(args[0]) + "/reconciliation"
				if err := client.do(cmd.Context(), "GET", path, nil, &resp); err != nil {
					return err
				}
				if c.output == outputJSON {
					return printJSON(cmd.OutOrStdout(), resp)
				}
				report := &dto.ReconciliationReportResponse{
					TotalBanks: 1,
					Consistent: resp.IsReconciled,
					CheckedAt:  resp.LastChecked,
				}
				if resp.IsReconciled {
					report.ReconciledBanks = 1
				} else {
					report.Discrepancies = []*dto.ReconciliationResponse{&resp}
				}
				return writeMarkdown(cmd.OutOrStdout(), c.reconciliationMarkdown(report), c.output == outputMarkdown)
			}

			var resp dto.ReconciliationReportResponse
			if err := client.do(cmd.Context(), "GET", "/api/v1/reports/reconciliation", nil, &resp); err != nil {
				return err
			}
			if c.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			return writeMarkdown(cmd.OutOrStdout(), c.reconciliationMarkdown(&resp), c.output == outputMarkdown)
		},
	}

	cmd.AddCommand(summaryCmd, reconciliationCmd)
	return cmd
}

// writeMarkdown prints md as is for table output and rendered otherwise.
func writeMarkdown(w io.Writer, md string, render bool) error {
	if !render {
		_, err := fmt.Fprint(w, md)
		return err
	}
	out, err := renderMarkdown(md)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}
