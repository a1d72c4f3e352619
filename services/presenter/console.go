package presenter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"solana-wallet-monitor/services/monitor"
	"solana-wallet-monitor/services/resolver"
	"solana-wallet-monitor/services/transaction"

	"github.com/charmbracelet/lipgloss"
)

const (
	signatureWidth = 30
	accountWidth   = 25
	ruleWidth      = 40
)

type StatsProvider interface {
	Stats() resolver.Stats
}

// Console writes human readable summaries of resolved transactions and of
// the finished session.
type Console struct {
	mx       sync.Mutex
	out      io.Writer
	requests StatsProvider
	network  string

	title   lipgloss.Style
	rule    lipgloss.Style
	label   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	gain    lipgloss.Style
	loss    lipgloss.Style
}

func NewConsole(out io.Writer, requests StatsProvider, network string) (*Console, error) {
	if out == nil {
		return nil, errors.New("[presenter] invalid writer")
	}
	if requests == nil {
		return nil, errors.New("[presenter] invalid stats provider")
	}

	renderer := lipgloss.NewRenderer(out)

	return &Console{
		out:      out,
		requests: requests,
		network:  network,

		title:   renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		rule:    renderer.NewStyle().Foreground(lipgloss.Color("240")),
		label:   renderer.NewStyle().Width(11),
		success: renderer.NewStyle().Foreground(lipgloss.Color("10")),
		failure: renderer.NewStyle().Foreground(lipgloss.Color("9")),
		gain:    renderer.NewStyle().Foreground(lipgloss.Color("10")),
		loss:    renderer.NewStyle().Foreground(lipgloss.Color("9")),
	}, nil
}

// Start prints the session banner.
func (c *Console) Start(subject string, target int) {
	c.mx.Lock()
	defer c.mx.Unlock()

	limit := "unlimited"
	if target > 0 {
		limit = strconv.Itoa(target)
	}

	c.printf("\n%s\n", c.title.Render("SOLANA WALLET MONITOR"))
	c.printf("%s\n", c.rule.Render(strings.Repeat("=", ruleWidth)))
	c.field("Wallet", subject)
	c.field("Max", limit)
	c.field("Network", c.network)
	c.printf("%s\n", c.rule.Render(strings.Repeat("=", ruleWidth)))
	c.printf("Waiting for transactions...\n")
}

func (c *Console) Present(_ context.Context, tx *transaction.Transaction, unique int) {
	if tx == nil {
		return
	}

	c.mx.Lock()
	defer c.mx.Unlock()

	c.printf("\n%s\n", c.title.Render(fmt.Sprintf("TRANSACTION SUMMARY #%d", unique)))
	c.printf("%s\n", c.rule.Render(strings.Repeat("─", ruleWidth)))
	c.field("Signature", shorten(string(tx.Signature), signatureWidth))
	c.field("Time", tx.TimestampString())
	c.field("Slot", groupThousands(tx.Slot))
	c.field("Fee", tx.Fee().StringFixed(9)+" SOL")
	c.field("Type", string(tx.Type))
	c.field("Status", c.status(tx.Status))

	if tx.IsTransfer() {
		c.printf("\nTRANSFER DETAILS:\n")
		c.field("From", shorten(tx.FromAccount, signatureWidth))
		c.field("To", shorten(tx.ToAccount, signatureWidth))
		c.field("Amount", tx.TransferAmount().StringFixed(9)+" SOL")
	}

	var changes []transaction.BalanceChange
	for _, change := range tx.BalanceChanges {
		if change.Significant() {
			changes = append(changes, change)
		}
	}

	if len(changes) > 0 {
		c.printf("\nBALANCE CHANGES:\n")
		for _, change := range changes {
			delta := change.Delta().StringFixed(9)
			style := c.loss
			if change.DeltaLamports > 0 {
				delta = "+" + delta
				style = c.gain
			}
			c.printf("   %s: %s SOL\n", shorten(change.Account, accountWidth), style.Render(delta))
		}
	}
}

func (c *Console) Finish(_ context.Context, report monitor.Report) {
	c.mx.Lock()
	defer c.mx.Unlock()

	c.printf("\n%s\n", c.title.Render("MONITORING "+report.State.String()))
	c.field("Unique", strconv.Itoa(report.Unique))
	c.field("Resolved", strconv.Itoa(report.Resolved))
	c.field("Dropped", strconv.Itoa(report.Dropped))
	if report.Duplicates > 0 {
		c.field("Duplicates", strconv.Itoa(report.Duplicates))
	}
	if report.Err != "" {
		c.field("Error", c.failure.Render(report.Err))
	}

	total := report.Unique + report.Duplicates
	c.printf("\n%s\n", c.title.Render("MONITORING STATISTICS"))
	c.printf("%s\n", c.rule.Render(strings.Repeat("=", ruleWidth)))
	c.field("Received", strconv.Itoa(total))
	c.field("Dup. rate", fmt.Sprintf("%.1f%%", percent(report.Duplicates, total)))

	stats := c.requests.Stats()
	c.printf("\n%s\n", c.title.Render("TRANSACTION FETCHER STATISTICS"))
	c.printf("%s\n", c.rule.Render(strings.Repeat("=", ruleWidth)))
	// success is per signature, the resolver counts every attempt
	fetched := report.Resolved + report.Dropped
	c.field("Signatures", strconv.Itoa(fetched))
	c.field("Resolved", strconv.Itoa(report.Resolved))
	c.field("Success", fmt.Sprintf("%.1f%%", percent(report.Resolved, fetched)))
	c.field("Attempts", strconv.FormatInt(stats.Total, 10))
	c.field("Rejected", strconv.FormatInt(stats.Failed, 10))
	c.field("Network", c.network)
}

func (c *Console) status(status transaction.Status) string {
	if status == transaction.StatusFailed {
		return c.failure.Render(string(status))
	}
	return c.success.Render(string(status))
}

func (c *Console) field(name, value string) {
	c.printf("%s %s\n", c.label.Render(name+":"), value)
}

func (c *Console) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func shorten(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width] + "..."
}

func groupThousands(v uint64) string {
	digits := strconv.FormatUint(v, 10)

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return b.String()
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
