package main

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ariondjunior/tapajos/internal/adapter/http/dto"
)

func entitiesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entities",
		Aliases: []string{"entity"},
		Short:   "Clients and suppliers",
	}

	var (
		name     string
		isClient bool
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a client or supplier",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := c.client()
			if err != nil {
				return err
			}

			var resp dto.EntityResponse
			req := dto.CreateEntityRequest{Name: name, IsClient: isClient}
			if err := client.do(cmd.Context(), "POST", "/api/v1/entities", req, &resp); err != nil {
				return err
			}

			if c.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", resp.Kind, resp.Name, resp.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "Name")
	addCmd.Flags().BoolVar(&isClient, "client", false, "Register as a client (default supplier)")
	_ = addCmd.MarkFlagRequired("name")

	var (
		clients, suppliers bool
		limit, offset      int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List clients and suppliers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clients && suppliers {
				return errors.New("use either --clients or --suppliers")
			}
			client, _, err := c.client()
			if err != nil {
				return err
			}

			q := pageQuery(limit, offset)
			if clients || suppliers {
				q.Set("client", strconv.FormatBool(clients))
			}

			var resp dto.ListEntitiesResponse
			if err := client.do(cmd.Context(), "GET", "/api/v1/entities?"+q.Encode(), nil, &resp); err != nil {
				return err
			}

			if c.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			c.printEntities(cmd.OutOrStdout(), &resp)
			return nil
		},
	}
	listCmd.Flags().BoolVar(&clients, "clients", false, "Only clients")
	listCmd.Flags().BoolVar(&suppliers, "suppliers", false, "Only suppliers")
	addPageFlags(listCmd, &limit, &offset)

	cmd.AddCommand(addCmd, listCmd)
	return cmd
}

func banksCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "banks",
		Aliases: []string{"bank"},
		Short:   "Bank accounts",
	}

	var (
		name           string
		initialBalance string
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a bank account",
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := decimal.NewFromString(initialBalance)
			if err != nil {
				return fmt.Errorf("--initial-balance: %w", err)
			}
			client, _, err := c.client()
			if err != nil {
				return err
			}

			var resp dto.BankResponse
			req := dto.CreateBankRequest{Name: name, InitialBalance: balance}
			if err := client.do(cmd.Context(), "POST", "/api/v1/banks", req, &resp); err != nil {
				return err
			}

			if c.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created bank %s (%s) with balance %s\n", resp.Name, resp.ID, formatMoney(resp.Balance, c.currency))
			return nil
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "Name")
	addCmd.Flags().StringVar(&initialBalance, "initial-balance", "0", "Opening balance")
	_ = addCmd.MarkFlagRequired("name")

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List bank accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := c.client()
			if err != nil {
				return err
			}

			var resp dto.ListBanksResponse
			if err := client.do(cmd.Context(), "GET", "/api/v1/banks?"+pageQuery(limit, offset).Encode(), nil, &resp); err != nil {
				return err
			}

			if c.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			c.printBanks(cmd.OutOrStdout(), resp.Banks)
			return nil
		},
	}
	addPageFlags(listCmd, &limit, &offset)

	var stLimit, stOffset int
	statementCmd := &cobra.Command{
		Use:   "statement <bank-id>",
		Short: "Show a bank's movements, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := c.client()
			if err != nil {
				return err
			}

			var resp dto.StatementResponse
			path := "/api/v1/banks/" + url.PathEscape(args[0]) + "/statement?" + pageQuery(stLimit, stOffset).Encode()
			if err := client.do(cmd.Context(), "GET", path, nil, &resp); err != nil {
				return err
			}

			if c.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n\n", resp.Bank.Name, formatMoney(resp.Bank.Balance, c.currency))
			c.printEntries(out, resp.Entries)
			return nil
		},
	}
	addPageFlags(statementCmd, &stLimit, &stOffset)

	cmd.AddCommand(addCmd, listCmd, statementCmd)
	return cmd
}

func addPageFlags(cmd *cobra.Command, limit, offset *int) {
	cmd.Flags().IntVar(limit, "limit", 20, "Maximum rows")
	cmd.Flags().IntVar(offset, "offset", 0, "Rows to skip")
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return q
}
