// Package tui implements the interactive review queue for flagged records.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/audithawk/internal/model"
	"github.com/Veraticus/audithawk/internal/tui/themes"
)

// Reviewer applies dispositions to the live working set. audit.State
// satisfies it.
type Reviewer interface {
	Live() (*model.AuditSession, error)
	SetStatus(index int, status model.Status) (*model.AuditSession, error)
	Summary() (model.Summary, error)
}

// Model is the bubbletea model for the review queue.
type Model struct {
	reviewer Reviewer
	session  *model.AuditSession
	err      error
	theme    themes.Theme
	keys     KeyMap
	help     help.Model
	table    table.Model
	summary  model.Summary
	width    int
	height   int
	quitting bool
}

// New loads the live session from reviewer and builds the table.
func New(reviewer Reviewer, theme themes.Theme) (Model, error) {
	session, err := reviewer.Live()
	if err != nil {
		return Model{}, err
	}
	summary, err := reviewer.Summary()
	if err != nil {
		return Model{}, err
	}

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true)
	s.Selected = theme.Selected
	t.SetStyles(s)

	m := Model{
		reviewer: reviewer,
		session:  session,
		summary:  summary,
		theme:    theme,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		table:    t,
		width:    80,
		height:   24,
	}
	m.table.SetRows(m.rows())
	return m, nil
}

func columns(width int) []table.Column {
	merchant := 20
	if width > 100 {
		merchant = width - 80
	}
	return []table.Column{
		{Title: "#", Width: 5},
		{Title: "Transaction", Width: 14},
		{Title: "Merchant", Width: merchant},
		{Title: "Amount", Width: 12},
		{Title: "Reason", Width: 18},
		{Title: "Status", Width: 10},
	}
}

func (m Model) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.session.Flagged))
	for _, rec := range m.session.Flagged {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", rec.Index),
			rec.TransactionID,
			rec.Merchant,
			fmt.Sprintf("%.2f", rec.Amount),
			string(rec.Reason),
			string(rec.Status),
		})
	}
	return rows
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetColumns(columns(msg.Width))
		if h := msg.Height - 12; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Accept):
			return m.decide(model.StatusAccepted), nil
		case key.Matches(msg, m.keys.Reject):
			return m.decide(model.StatusRejected), nil
		case key.Matches(msg, m.keys.Reset):
			return m.decide(model.StatusPending), nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) decide(status model.Status) Model {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.session.Flagged) {
		return m
	}
	index := m.session.Flagged[cursor].Index

	session, err := m.reviewer.SetStatus(index, status)
	if err != nil {
		m.err = err
		return m
	}
	summary, err := m.reviewer.Summary()
	if err != nil {
		m.err = err
		return m
	}

	m.err = nil
	m.session = session
	m.summary = summary
	m.table.SetRows(m.rows())
	if cursor+1 < len(m.session.Flagged) {
		m.table.SetCursor(cursor + 1)
	}
	return m
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Review queue: " + m.session.FileName))
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render(fmt.Sprintf(
		"%d flagged of %d  fraud %d  pending %d  accepted %d  rejected %d  risk %d%%",
		len(m.session.Flagged), m.summary.TotalTransactions, m.summary.FraudCount,
		m.summary.PendingCount, m.summary.AcceptedCount, m.summary.RejectedCount, m.summary.RiskScore)))
	b.WriteString("\n\n")

	if len(m.session.Flagged) == 0 {
		b.WriteString(m.theme.Subtitle.Render("Nothing to review: no records were flagged."))
	} else {
		b.WriteString(m.table.View())
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(m.theme.StatusError.Render("Error: " + m.err.Error()))
	}

	b.WriteString(m.theme.Footer.Render(m.help.View(m.keys)))
	return b.String()
}

// Session returns the live session as last updated.
func (m Model) Session() *model.AuditSession {
	return m.session
}
