package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ariondjunior/tapajos/internal/adapter/http/dto"
)

func syncCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull banks and entities from the remote system",
	}

	for _, resource := range []string{"banks", "entities"} {
		cmd.AddCommand(&cobra.Command{
			Use:   resource,
			Short: fmt.Sprintf("Start a background sync of %s", resource),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, _, err := c.client()
				if err != nil {
					return err
				}

				var resp dto.SyncAcceptedResponse
				if err := client.do(cmd.Context(), "POST", "/api/v1/sync/"+resource, nil, &resp); err != nil {
					return err
				}

				if c.output == outputJSON {
					return printJSON(cmd.OutOrStdout(), resp)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sync of %s %s\n", resp.Resource, resp.Status)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show running syncs and the last result per resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := c.client()
			if err != nil {
				return err
			}

			var resp dto.SyncStatusResponse
			if err := client.do(cmd.Context(), "GET", "/api/v1/sync/status", nil, &resp); err != nil {
				return err
			}

			if c.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}

			names := make([]string, 0, len(resp.Running)+len(resp.Last))
			seen := map[string]bool{}
			for name := range resp.Running {
				names = append(names, name)
				seen[name] = true
			}
			for name := range resp.Last {
				if !seen[name] {
					names = append(names, name)
				}
			}
			sort.Strings(names)

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "RESOURCE\tRUNNING\tFINISHED\tFETCHED\tCREATED\tUPDATED\tREJECTED\tERROR")
			for _, name := range names {
				last, ok := resp.Last[name]
				if !ok {
					fmt.Fprintf(tw, "%s\t%t\t-\t-\t-\t-\t-\t-\n", name, resp.Running[name])
					continue
				}
				fmt.Fprintf(tw, "%s\t%t\t%s\t%d\t%d\t%d\t%d\t%s\n",
					name, resp.Running[name], last.FinishedAt.Format(time.RFC3339),
					last.Fetched, last.Created, last.Updated, last.Rejected, orDash(last.Error))
			}
			return tw.Flush()
		},
	})

	return cmd
}
