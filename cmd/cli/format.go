package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/adapter/http/dto"
)

// formatMoney renders an API amount ("1234.50") in currency, e.g. R$1.234,50.
// Unknown currencies and unparsable amounts are returned as given.
func formatMoney(amount, currency string) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}

	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount + " " + currency
	}

	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(d.Mul(factor).Round(0).IntPart(), cur.Code).Display()
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func derefOrDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func (c *cli) printEntities(w io.Writer, list *dto.ListEntitiesResponse) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tEXTERNAL ID")
	for _, e := range list.Entities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, truncate(e.Name, 40), e.Kind, orDash(e.ExternalID))
	}
	tw.Flush()
}

func (c *cli) printBanks(w io.Writer, banks []*dto.BankResponse) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tBALANCE\tSOURCE\tREMOTE BALANCE")
	for _, b := range banks {
		remote := "-"
		if b.RemoteBalance != nil {
			remote = formatMoney(*b.RemoteBalance, c.currency)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, truncate(b.Name, 40), formatMoney(b.Balance, c.currency), b.Source, remote)
	}
	tw.Flush()
}

func (c *cli) printEntries(w io.Writer, entries []*dto.EntryResponse) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tSTATUS\tAMOUNT\tBANK\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.Date.Format("2006-01-02"),
			e.Type,
			e.Status,
			formatMoney(e.SignedAmount, c.currency),
			derefOrDash(e.BankID),
			truncate(e.Description, 50),
		)
	}
	tw.Flush()
}

func (c *cli) printMutation(w io.Writer, m *dto.MutationResponse) {
	if m.Outcome != "" {
		fmt.Fprintf(w, "Outcome: %s\n", m.Outcome)
	}
	if m.Entry != nil {
		c.printEntries(w, []*dto.EntryResponse{m.Entry})
	}
	if m.Movement != nil {
		fmt.Fprintf(w, "\n%s %s\n", m.Movement.Description, formatMoney(m.Movement.Amount, c.currency))
	}
	if m.Bank != nil {
		fmt.Fprintf(w, "Bank %s balance: %s\n", m.Bank.Name, formatMoney(m.Bank.Balance, c.currency))
	}
}

// summaryMarkdown lays the summary out as a Markdown document.
func (c *cli) summaryMarkdown(s *dto.SummaryResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Summary\n\n_Generated %s_\n\n", s.GeneratedAt.Format("2006-01-02 15:04"))

	b.WriteString("## Obligations\n\n")
	b.WriteString("| | Pending | Overdue | Settled |\n|---|---|---|---|\n")
	for _, row := range []struct {
		name string
		t    dto.ObligationTotalsResponse
	}{{"Payables", s.Payables}, {"Receivables", s.Receivables}} {
		fmt.Fprintf(&b, "| %s | %s (%d) | %s (%d) | %s (%d) |\n", row.name,
			formatMoney(row.t.Pending, c.currency), row.t.PendingCount,
			formatMoney(row.t.Overdue, c.currency), row.t.OverdueCount,
			formatMoney(row.t.Settled, c.currency), row.t.SettledCount,
		)
	}

	b.WriteString("\n## Banks\n\n| Bank | Balance |\n|---|---|\n")
	for _, bank := range s.Banks {
		fmt.Fprintf(&b, "| %s | %s |\n", bank.Name, formatMoney(bank.Balance, c.currency))
	}

	fmt.Fprintf(&b, "\n**Cash position:** %s\n\n**Projected position:** %s\n",
		formatMoney(s.CashPosition, c.currency), formatMoney(s.ProjectedPosition, c.currency))

	return b.String()
}

// reconciliationMarkdown lays the reconciliation report out as Markdown.
func (c *cli) reconciliationMarkdown(r *dto.ReconciliationReportResponse) string {
	var b strings.Builder

	status := "consistent"
	if !r.Consistent {
		status = "INCONSISTENT"
	}
	fmt.Fprintf(&b, "# Reconciliation\n\n%d of %d banks reconciled, ledger is **%s**.\n", r.ReconciledBanks, r.TotalBanks, status)

	if len(r.Discrepancies) > 0 {
		b.WriteString("\n## Bank discrepancies\n\n| Bank | Recorded | Calculated | Difference |\n|---|---|---|---|\n")
		for _, d := range r.Discrepancies {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", orDash(d.BankName),
				formatMoney(d.RecordedBalance, c.currency),
				formatMoney(d.CalculatedBalance, c.currency),
				formatMoney(d.Difference, c.currency))
		}
	}

	if len(r.SettlementIssues) > 0 {
		b.WriteString("\n## Settlement issues\n\n| Entry | Paid | Expected | Movements |\n|---|---|---|---|\n")
		for _, s := range r.SettlementIssues {
			fmt.Fprintf(&b, "| %s | %t | %s | %d (%s) |\n", s.EntryID, s.Paid,
				formatMoney(s.ExpectedAmount, c.currency), s.MovementCount,
				formatMoney(s.MovementTotal, c.currency))
		}
	}

	return b.String()
}

// renderMarkdown renders md for the terminal.
func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
