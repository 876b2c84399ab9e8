package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/audithawk/internal/audit"
	"github.com/Veraticus/audithawk/internal/model"
	"github.com/Veraticus/audithawk/internal/tui/themes"
)

type fakeReviewer struct {
	err     error
	session model.AuditSession
	calls   []model.Status
}

func newFakeReviewer() *fakeReviewer {
	records := []model.TransactionRecord{
		{Index: 1, TransactionID: "T1", Merchant: "Globex", Amount: 500, Flagged: true, Reason: model.ReasonExceedsThreshold, Status: model.StatusPending},
		{Index: 2, TransactionID: "T2", Merchant: "Acme", Amount: 10, Status: model.StatusPending},
		{Index: 3, TransactionID: "T3", Merchant: "Initech", Amount: 900, Flagged: true, Reason: model.ReasonExceedsThreshold, Status: model.StatusPending},
	}
	return &fakeReviewer{session: audit.BuildSession("queue.csv", records, audit.BuildOptions{})}
}

func (f *fakeReviewer) Live() (*model.AuditSession, error) {
	return f.session.Clone(), nil
}

func (f *fakeReviewer) SetStatus(index int, status model.Status) (*model.AuditSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, status)
	updated, err := audit.ApplyDisposition(f.session, index, status)
	if err != nil {
		return nil, err
	}
	f.session = updated
	return f.session.Clone(), nil
}

func (f *fakeReviewer) Summary() (model.Summary, error) {
	return audit.Summarize(f.session), nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestModel_AcceptAdvancesCursor(t *testing.T) {
	reviewer := newFakeReviewer()
	m, err := New(reviewer, themes.Default)
	require.NoError(t, err)

	m = update(t, m, runes("a"))
	assert.Equal(t, []model.Status{model.StatusAccepted}, reviewer.calls)
	assert.Equal(t, model.StatusAccepted, m.Session().Flagged[0].Status)
	assert.Equal(t, 1, m.table.Cursor())

	m = update(t, m, runes("r"))
	assert.Equal(t, model.StatusRejected, m.Session().Flagged[1].Status)
	assert.Equal(t, 1, m.summary.FraudCount)

	view := m.View()
	assert.Contains(t, view, "Review queue: queue.csv")
	assert.Contains(t, view, "rejected 1")
}

func TestModel_ResetAndNavigation(t *testing.T) {
	reviewer := newFakeReviewer()
	m, err := New(reviewer, themes.Default)
	require.NoError(t, err)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.table.Cursor())

	m = update(t, m, runes("n"))
	assert.Equal(t, model.StatusRejected, m.Session().Flagged[1].Status)

	m = update(t, m, runes("p"))
	assert.Equal(t, model.StatusPending, m.Session().Flagged[1].Status)
}

func TestModel_ErrorIsShown(t *testing.T) {
	reviewer := newFakeReviewer()
	m, err := New(reviewer, themes.Default)
	require.NoError(t, err)

	reviewer.err = errors.New("storage offline")
	m = update(t, m, runes("a"))
	assert.Contains(t, m.View(), "storage offline")
	assert.Equal(t, model.StatusPending, m.Session().Flagged[0].Status)
}

func TestModel_Quit(t *testing.T) {
	m, err := New(newFakeReviewer(), themes.Default)
	require.NoError(t, err)

	next, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestModel_HelpToggle(t *testing.T) {
	m, err := New(newFakeReviewer(), themes.Default)
	require.NoError(t, err)
	assert.NotContains(t, m.View(), "back to pending")

	m = update(t, m, runes("?"))
	assert.Contains(t, m.View(), "back to pending")
}

func TestModel_EmptyQueueUsesNeutralStyle(t *testing.T) {
	records := []model.TransactionRecord{
		{Index: 1, TransactionID: "T1", Merchant: "Acme", Amount: 10, Status: model.StatusPending},
	}
	reviewer := &fakeReviewer{session: audit.BuildSession("clean.csv", records, audit.BuildOptions{})}
	m, err := New(reviewer, themes.Default)
	require.NoError(t, err)

	msg := "Nothing to review: no records were flagged."
	view := m.View()
	assert.Contains(t, view, themes.Default.Subtitle.Render(msg))
	if rejected := themes.Default.StatusReject.Render(msg); rejected != msg {
		assert.NotContains(t, view, rejected)
	}
}

func TestNew_NoLiveSession(t *testing.T) {
	_, err := New(noLive{}, themes.Default)
	assert.ErrorIs(t, err, audit.ErrNoLiveSession)
}

type noLive struct{}

func (noLive) Live() (*model.AuditSession, error) { return nil, audit.ErrNoLiveSession }
func (noLive) SetStatus(int, model.Status) (*model.AuditSession, error) {
	return nil, audit.ErrNoLiveSession
}
func (noLive) Summary() (model.Summary, error) { return model.Summary{}, audit.ErrNoLiveSession }

func TestThemesByName(t *testing.T) {
	assert.Equal(t, themes.CatppuccinMocha.Primary, themes.ByName("catppuccin").Primary)
	assert.Equal(t, themes.Default.Primary, themes.ByName("unknown").Primary)
}
