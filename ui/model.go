package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lepinkainen/pageconv/convert"
)

// FileLogEntry is one finished unit in the processed files list
type FileLogEntry struct {
	Unit   string
	Output string
	Error  string
}

func (f FileLogEntry) FilterValue() string { return f.Unit }
func (f FileLogEntry) Title() string       { return f.Unit }
func (f FileLogEntry) Description() string {
	if f.Error != "" {
		return fmt.Sprintf("❌ %s", f.Error)
	}
	return fmt.Sprintf("✓ → %s", filepath.Base(f.Output))
}

// BatchModel renders a running batch: one bar for the current unit, one for
// the whole batch, and the list of finished units
type BatchModel struct {
	events <-chan convert.Event

	from, to    convert.Format
	current     string
	state       convert.BatchState
	fileEntries []FileLogEntry
	summary     *convert.Summary

	unitProgress  progress.Model
	batchProgress progress.Model
	fileList      list.Model

	width  int
	height int

	// a running batch cannot be interrupted; quit requests only show a note
	note string
	done bool

	Version string
}

// NewBatchModel creates a model that follows the given event channel
func NewBatchModel(events <-chan convert.Event, from, to convert.Format, total int, version string) BatchModel {
	fileList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	fileList.Title = "Processed Files"
	fileList.SetShowHelp(false)

	return BatchModel{
		events:        events,
		from:          from,
		to:            to,
		state:         convert.BatchState{Total: total},
		unitProgress:  progress.New(progress.WithDefaultGradient()),
		batchProgress: progress.New(progress.WithDefaultGradient()),
		fileList:      fileList,
		Version:       version,
	}
}

// Init implements tea.Model
func (m BatchModel) Init() tea.Cmd {
	return WaitForEvent(m.events)
}

// Update implements tea.Model
func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.done {
				return m, tea.Quit
			}
			m.note = "Conversion in progress; it will finish before exiting."
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.unitProgress.Width = max(msg.Width-30, 10)
		m.batchProgress.Width = max(msg.Width-30, 10)
		m.fileList.SetSize(msg.Width-4, msg.Height/3)

	case BatchEventMsg:
		m = m.apply(msg.Event)
		return m, WaitForEvent(m.events)

	case BatchClosedMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m BatchModel) apply(e convert.Event) BatchModel {
	m.state = e.Snapshot()

	switch e := e.(type) {
	case convert.UnitStartedEvent:
		m.current = e.Unit

	case convert.UnitFinishedEvent:
		entry := FileLogEntry{Unit: e.Unit, Output: e.Output}
		if e.Err != nil {
			entry.Error = e.Err.Error()
		}
		m.fileEntries = append(m.fileEntries, entry)

		items := make([]list.Item, len(m.fileEntries))
		for i, entry := range m.fileEntries {
			items[i] = entry
		}
		m.fileList.SetItems(items)

	case convert.BatchDoneEvent:
		summary := e.Summary
		m.summary = &summary
		m.current = ""
	}
	return m
}

// Summary returns the batch result once the worker reported it
func (m BatchModel) Summary() (convert.Summary, bool) {
	if m.summary == nil {
		return convert.Summary{}, false
	}
	return *m.summary, true
}

// View implements tea.Model
func (m BatchModel) View() string {
	header := HeaderStyle.Render(fmt.Sprintf("pageconv %s  %s → %s", m.Version, FormatLabel(m.from), FormatLabel(m.to)))

	unitView := fmt.Sprintf("Current:  %s %s",
		m.unitProgress.ViewAs(m.state.UnitPercent/100),
		DimStyle.Render(m.current))

	batchView := fmt.Sprintf("Overall:  %s (%d/%d)",
		m.batchProgress.ViewAs(m.state.BatchPercent/100),
		m.state.Processed,
		m.state.Total)

	status := ProcessingStyle.Render(m.state.Status)
	if m.summary != nil {
		status = SummaryLine(*m.summary)
	}

	sections := []string{
		header,
		unitView,
		batchView,
		status,
	}
	if len(m.fileEntries) > 0 {
		sections = append(sections, m.fileList.View())
	}
	if m.note != "" {
		sections = append(sections, WarningStyle.Render(m.note))
	}

	return strings.Join(sections, "\n\n") + "\n"
}
