package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/audithawk/internal/model"
)

// shareBarWidth is the number of cells in the fraud/legitimate bar.
const shareBarWidth = 40

// RenderDashboard draws the metric cards, the fraud share bar and the
// flagged table for one session.
func RenderDashboard(w io.Writer, session *model.AuditSession, summary model.Summary) error {
	var b strings.Builder

	b.WriteString(RenderBox(HawkIcon+" Dashboard: "+session.FileName,
		SubtleStyle.Render(fmt.Sprintf("Session %s  %s  mode=%s  threshold=%.2f",
			session.ID, session.Date, session.Mode, session.Threshold))))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		metricCard("Total Transactions", fmt.Sprintf("%d", summary.TotalTransactions), InfoStyle),
		metricCard("Fraud Count", fmt.Sprintf("%d", summary.FraudCount), ErrorStyle),
		metricCard("Risk Score", fmt.Sprintf("%d%%", summary.RiskScore), riskStyle(summary.RiskScore)),
		metricCard("Avg Flag Value", fmt.Sprintf("$%d", summary.AvgFlagValue), WarningStyle),
	))
	b.WriteString("\n\n")
	b.WriteString(ShareBar(summary.LegitimateCount, summary.FraudCount, shareBarWidth))
	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("legitimate %d  fraud %d  pending %d  accepted %d  rejected %d",
		summary.LegitimateCount, summary.FraudCount, summary.PendingCount, summary.AcceptedCount, summary.RejectedCount)))
	b.WriteString("\n\n")

	if _, err := fmt.Fprint(w, b.String()); err != nil {
		return err
	}
	return RenderFlaggedTable(w, session.Flagged)
}

func metricCard(title, value string, style lipgloss.Style) string {
	return MetricStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		SubtleStyle.Render(title),
		style.Bold(true).Render(value),
	))
}

func riskStyle(score int) lipgloss.Style {
	switch {
	case score >= 50:
		return ErrorStyle
	case score >= 20:
		return WarningStyle
	default:
		return SuccessStyle
	}
}

// ShareBar renders legitimate and fraud counts as a proportional bar.
func ShareBar(legitimate, fraud, width int) string {
	total := legitimate + fraud
	if total <= 0 || width <= 0 {
		return SubtleStyle.Render(strings.Repeat("·", max(width, 0)))
	}
	fraudCells := fraud * width / total
	if fraud > 0 && fraudCells == 0 {
		fraudCells = 1
	}
	return SuccessStyle.Render(strings.Repeat("█", width-fraudCells)) +
		ErrorStyle.Render(strings.Repeat("█", fraudCells))
}

// RenderFlaggedTable lists flagged records with their review status.
func RenderFlaggedTable(w io.Writer, flagged []model.TransactionRecord) error {
	if len(flagged) == 0 {
		_, err := fmt.Fprintln(w, FormatSuccess("No flagged transactions."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		TableHeaderStyle.Render("#"),
		TableHeaderStyle.Render("Transaction"),
		TableHeaderStyle.Render("Merchant"),
		TableHeaderStyle.Render("Amount"),
		TableHeaderStyle.Render("Reason"),
		TableHeaderStyle.Render("Status"))
	for _, rec := range flagged {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\t%s\n",
			rec.Index, rec.TransactionID, orDash(rec.Merchant), rec.Amount, rec.Reason, StatusLabel(rec.Status))
	}
	return tw.Flush()
}

// StatusLabel colors a disposition.
func StatusLabel(status model.Status) string {
	switch status {
	case model.StatusAccepted:
		return ErrorStyle.Render(string(status))
	case model.StatusRejected:
		return SuccessStyle.Render(string(status))
	default:
		return WarningStyle.Render(string(status))
	}
}

// RenderHistory lists sessions as stored, most recent first.
func RenderHistory(w io.Writer, sessions []model.AuditSession) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, InfoStyle.Render("No sessions recorded yet. Run 'audithawk analyze' first."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		TableHeaderStyle.Render("ID"),
		TableHeaderStyle.Render("Date"),
		TableHeaderStyle.Render("File"),
		TableHeaderStyle.Render("Records"),
		TableHeaderStyle.Render("Flagged"),
		TableHeaderStyle.Render("Risk"))
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			s.ID, s.Date, s.FileName, len(s.Transactions), len(s.Flagged),
			riskStyle(s.RiskScore).Render(fmt.Sprintf("%d%%", s.RiskScore)))
	}
	return tw.Flush()
}

// RenderVendors lists the trusted vendors.
func RenderVendors(w io.Writer, names []string) error {
	if len(names) == 0 {
		_, err := fmt.Fprintln(w, InfoStyle.Render("No trusted vendors. Use 'audithawk vendors add' to create one."))
		return err
	}

	var b strings.Builder
	b.WriteString(FormatTitle(fmt.Sprintf("Trusted vendors (%d)", len(names))))
	b.WriteString("\n")
	for _, name := range names {
		b.WriteString("  " + SuccessIcon + " " + name + "\n")
	}
	_, err := fmt.Fprint(w, b.String())
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
