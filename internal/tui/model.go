package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"clinicalrag/internal/evaluator"
	"clinicalrag/internal/pipeline"
)

// Asker is the TUI-facing subset of the pipeline.
type Asker interface {
	Ask(ctx context.Context, query string, k int) (*pipeline.Result, error)
}

type askDoneMsg struct {
	result *pipeline.Result
	err    error
}

// Model is the Bubble Tea model for the interactive application.
type Model struct {
	pipeline Asker
	topK     int

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model

	result    *pipeline.Result
	cursor    int
	status    string
	busy      bool
	ready     bool
	lastQuery string

	// cancels the in-flight pipeline call so quitting the TUI does not
	// leave a generation request running
	cancelAsk context.CancelFunc
}

// New creates a new TUI model. header describes the loaded index and is
// shown under the title.
func New(p Asker, topK int, header string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Enter a diagnostic query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		pipeline: p,
		topK:     topK,
		input:    ti,
		viewport: viewport.New(0, 0),
		spin:     sp,
		status:   header,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // title + status, query box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = maxInt(3, vh-rh)
		m.viewport.SetContent(m.render())
		return m, nil
	case askDoneMsg:
		m.busy = false
		if m.cancelAsk != nil {
			m.cancelAsk()
			m.cancelAsk = nil
		}
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.result = nil
		} else if len(msg.result.Results) == 0 {
			m.status = fmt.Sprintf("No relevant documents found for %q", m.lastQuery)
			m.result = nil
		} else {
			m.status = fmt.Sprintf("Assessment for %q", m.lastQuery)
			m.result = msg.result
			m.cursor = 0
		}
		m.viewport.SetContent(m.render())
		return m, nil
	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			if m.cancelAsk != nil {
				m.cancelAsk()
				m.cancelAsk = nil
			}
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.busy {
				m.busy = true
				m.lastQuery = q
				m.status = "Retrieving and synthesizing..."
				ctx, cancel := context.WithCancel(context.Background())
				m.cancelAsk = cancel
				return m, tea.Batch(m.spin.Tick, m.ask(ctx, q))
			}
		case "down":
			if m.result != nil && len(m.result.Results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.result.Results)
				m.viewport.SetContent(m.render())
				return m, nil
			}
		case "up":
			if m.result != nil && len(m.result.Results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.result.Results)) % len(m.result.Results)
				m.viewport.SetContent(m.render())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the pipeline off the UI loop; generation takes seconds. The
// context is cancelled when the user quits mid-generation.
func (m Model) ask(ctx context.Context, query string) tea.Cmd {
	p, k := m.pipeline, m.topK
	return func() tea.Msg {
		res, err := p.Ask(ctx, query, k)
		return askDoneMsg{result: res, err: err}
	}
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := titleStyle.Render("DIRECT: RAG for Diagnostic Reasoning")
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spin.View() + " " + status
	}
	input := queryBoxStyle.Render(m.input.View())
	body := resultBoxStyle.Render(m.viewport.View())
	return title + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) render() string {
	if m.result == nil {
		return "No assessment yet. Enter a query above."
	}
	r := m.result
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Diagnostic Assessment"))
	b.WriteString("\n" + r.Answer + "\n\n")

	b.WriteString(sectionStyle.Render("Evaluation Metrics"))
	fmt.Fprintf(&b, "\nRelevance (query vs answer):      %.4f\n", evaluator.Round4(r.Metrics.Relevance))
	fmt.Fprintf(&b, "Faithfulness (answer vs context): %.4f\n", evaluator.Round4(r.Metrics.Faithfulness))
	b.WriteString(dimStyle.Render("Scores range from -1 to 1. Higher is better.") + "\n\n")

	doc := r.Results[m.cursor]
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Retrieved Document %d/%d", m.cursor+1, len(r.Results))))
	fmt.Fprintf(&b, "\nScore: %.4f\n", doc.Score)
	fmt.Fprintf(&b, "Condition: %s | Sub-Diagnosis: %s\n", doc.Metadata.Condition, doc.Metadata.SubDiagnosis)
	if doc.Metadata.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", doc.Metadata.Source)
	}
	b.WriteString("\n" + doc.Content + "\n")
	b.WriteString(dimStyle.Render("\nup/down: browse documents  ctrl+c: quit"))
	return b.String()
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	sectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
