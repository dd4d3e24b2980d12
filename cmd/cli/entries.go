package main

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ariondjunior/tapajos/internal/adapter/http/dto"
)

const dateLayout = "2006-01-02"

func entriesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entries",
		Aliases: []string{"entry"},
		Short:   "Payables, receivables and bank movements",
	}
	cmd.AddCommand(entriesAddCmd(c), entriesListCmd(c), entriesShowCmd(c), entriesPayCmd(c))
	return cmd
}

func entriesAddCmd(c *cli) *cobra.Command {
	var (
		entryType   string
		amount      string
		description string
		entityID    string
		bankID      string
		paid        bool
		due         string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a payable or receivable",
		Example: `  tapajos entries add --type payable --amount 30 --entity <id> --bank <id> --paid
  tapajos entries add --type receivable --amount 120.50 --due 2026-11-30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}

			req := dto.AddEntryRequest{
				Type:        entryType,
				Amount:      value,
				Description: description,
				Paid:        paid,
			}
			if entityID != "" {
				req.EntityID = &entityID
			}
			if bankID != "" {
				req.BankID = &bankID
			}
			if due != "" {
				d, err := time.Parse(dateLayout, due)
				if err != nil {
					return fmt.Errorf("--due: %w", err)
				}
				req.DueDate = &d
			}

			client, sess, err := c.client()
			if err != nil {
				return err
			}
			req.User = actor(sess)

			var resp dto.MutationResponse
			if err := client.do(cmd.Context(), "POST", "/api/v1/entries", req, &resp); err != nil {
				return err
			}

			if c.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			c.printMutation(cmd.OutOrStdout(), &resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&entryType, "type", "", "Entry type: payable or receivable")
	cmd.Flags().StringVar(&amount, "amount", "", "Positive amount, at most two decimal places")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&entityID, "entity", "", "Client or supplier ID")
	cmd.Flags().StringVar(&bankID, "bank", "", "Bank ID")
	cmd.Flags().BoolVar(&paid, "paid", false, "Settle immediately (requires --bank)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func entriesListCmd(c *cli) *cobra.Command {
	var (
		entryType     string
		paid, pending bool
		obligations   bool
		bankID        string
		entityID      string
		limit, offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if paid && pending {
				return errors.New("use either --paid or --pending")
			}

			q := pageQuery(limit, offset)
			if entryType != "" {
				q.Set("type", entryType)
			}
			if paid || pending {
				q.Set("paid", strconv.FormatBool(paid))
			}
			if obligations {
				q.Set("obligations", "true")
			}
			if bankID != "" {
				q.Set("bank_id", bankID)
			}
			if entityID != "" {
				q.Set("entity_id", entityID)
			}

			client, _, err := c.client()
			if err != nil {
				return err
			}

			var resp dto.ListEntriesResponse
			if err := client.do(cmd.Context(), "GET", "/api/v1/entries?"+q.Encode(), nil, &resp); err != nil {
				return err
			}

			if c.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			c.printEntries(cmd.OutOrStdout(), resp.Entries)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d entries\n", len(resp.Entries), resp.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&entryType, "type", "", "Filter by type: payable, receivable or bank")
	cmd.Flags().BoolVar(&paid, "paid", false, "Only settled entries")
	cmd.Flags().BoolVar(&pending, "pending", false, "Only pending entries")
	cmd.Flags().BoolVar(&obligations, "obligations", false, "Only payables and receivables")
	cmd.Flags().StringVar(&bankID, "bank", "", "Filter by bank ID")
	cmd.Flags().StringVar(&entityID, "entity", "", "Filter by client or supplier ID")
	addPageFlags(cmd, &limit, &offset)

	return cmd
}

func entriesShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := c.client()
			if err != nil {
				return err
			}

			var resp dto.EntryResponse
			if err := client.do(cmd.Context(), "GET", "/api/v1/entries/"+url.PathEscape(args[0]), nil, &resp); err != nil {
				return err
			}

			if c.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			c.printEntries(cmd.OutOrStdout(), []*dto.EntryResponse{&resp})
			return nil
		},
	}
}

func entriesPayCmd(c *cli) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "pay <entry-id>",
		Short: "Settle a pending payable or receivable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, sess, err := c.client()
			if err != nil {
				return err
			}

			req := dto.PayEntryRequest{User: actor(sess)}
			if date != "" {
				d, err := time.Parse(dateLayout, date)
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				req.Date = &d
			}

			var resp dto.MutationResponse
			path := "/api/v1/entries/" + url.PathEscape(args[0]) + "/pay"
			if err := client.do(cmd.Context(), "POST", path, req, &resp); err != nil {
				return err
			}

			if c.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			c.printMutation(cmd.OutOrStdout(), &resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Settlement date (YYYY-MM-DD), defaults to now")
	return cmd
}
