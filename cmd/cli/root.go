package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

const (
	outputTable    = "table"
	outputJSON     = "json"
	outputMarkdown = "markdown"
)

// cli carries flag values shared by every command.
type cli struct {
	baseURL     string
	timeout     time.Duration
	sessionPath string
	output      string
	currency    string
	now         func() time.Time
}

func newCLI() *cli {
	return &cli{now: time.Now}
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "tapajos", "session.json")
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tapajos",
		Short:         "Tapajos back-office ledger CLI",
		Long:          `A command line client for the Tapajos ledger API: registries, payables, receivables and bank movements.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.checkOutput()
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.baseURL, "url", envOr("TAPAJOS_URL", "http://localhost:8080"), "Base URL of the Tapajos API")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&c.sessionPath, "session", defaultSessionPath(), "Session file")
	rootCmd.PersistentFlags().StringVarP(&c.output, "output", "o", outputTable, "Output format: table, json or markdown")
	rootCmd.PersistentFlags().StringVar(&c.currency, "currency", "BRL", "Currency used to display amounts")

	rootCmd.AddCommand(
		loginCmd(c),
		logoutCmd(c),
		whoamiCmd(c),
		entitiesCmd(c),
		banksCmd(c),
		entriesCmd(c),
		reportsCmd(c),
		syncCmd(c),
	)

	return rootCmd
}

// client builds an API client using the stored session when there is one.
func (c *cli) client() (*apiClient, *Session, error) {
	sess, err := loadSession(c.sessionPath)
	if err != nil {
		return nil, nil, err
	}
	token := ""
	if sess != nil {
		token = sess.Token
	}
	return newAPIClient(c.baseURL, token, c.timeout), sess, nil
}

// actor is the user sent in request bodies; the server prefers the token's.
func actor(sess *Session) string {
	if sess == nil {
		return ""
	}
	return sess.User
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func (c *cli) checkOutput() error {
	switch c.output {
	case outputTable, outputJSON, outputMarkdown:
		return nil
	}
	return fmt.Errorf("unknown output format %q", c.output)
}
