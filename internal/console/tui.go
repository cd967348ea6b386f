package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashureev/datequiz/internal/content"
	"github.com/ashureev/datequiz/internal/domain"
	"github.com/ashureev/datequiz/internal/skill"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the Bubble Tea model of a local play-through.
type Model struct {
	dispatcher *skill.Dispatcher
	table      *content.Table
	sessionID  string
	session    domain.Session
	textInput  textinput.Model
	viewport   viewport.Model
	log        string
	width      int
	height     int
	busy       bool
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#87375F")).
			Bold(true).
			PaddingLeft(1)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6F61")).
			Bold(true).
			Underline(true)
)

// NewModel creates the console model for one conversation.
func NewModel(d *skill.Dispatcher, sessionID string) Model {
	ti := textinput.New()
	ti.Placeholder = "start Alex cafe"
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 60

	m := Model{
		dispatcher: d,
		table:      d.Machine().Table(),
		sessionID:  sessionID,
		session:    domain.NewSession(),
		textInput:  ti,
		viewport:   viewport.New(60, 20),
		width:      80,
		height:     26,
	}
	m.log = dateStyle.Bold(true).Render("Who are you taking out tonight?") + "\n" +
		m.partnerList() + "\n"
	m.viewport.SetContent(m.log)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

type turnMsg struct {
	resp skill.Response
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			line := strings.TrimSpace(m.textInput.Value())
			if line == "" || m.busy {
				return m, nil
			}
			m.textInput.Reset()

			switch strings.ToLower(line) {
			case "/quit":
				return m, tea.Quit
			case "help", "/help":
				m.append(helpStyle.Render(helpText))
				return m, nil
			case "partners":
				m.append(m.partnerList())
				return m, nil
			}

			m.append(userStyle.Width(m.logWidth()).Render("> " + line))
			req, err := ParseCommand(line, m.table.PartnerNames())
			if err != nil {
				m.append(errorStyle.Render(err.Error()))
				return m, nil
			}
			req.SessionID = m.sessionID
			m.busy = true
			return m, m.runTurn(req)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.logWidth()
		m.viewport.Height = msg.Height - 6
		m.viewport.SetContent(m.log)

	case turnMsg:
		m.busy = false
		m.session = msg.resp.Session
		text := msg.resp.Result.Narration.PlainText()
		if msg.resp.Err != nil {
			m.append(errorStyle.Render(text))
			return m, nil
		}
		if msg.resp.Result.Outcome != "" {
			text += fmt.Sprintf("\n\nOutcome: %s (%d points)", msg.resp.Result.Outcome, derefScore(msg.resp.Result.Score))
		}
		m.append(dateStyle.Width(m.logWidth()).Render(text))
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	mainView := lipgloss.JoinHorizontal(lipgloss.Top,
		m.viewport.View(),
		m.renderState(),
	)

	return "\n" + lipgloss.JoinVertical(lipgloss.Left,
		mainView,
		"\n"+m.textInput.View(),
		"\n"+helpStyle.Render(helpText),
	) + "\n"
}

func (m *Model) append(s string) {
	m.log += "\n" + s + "\n"
	m.viewport.SetContent(m.log)
	m.viewport.GotoBottom()
}

func (m Model) logWidth() int {
	return int(float64(m.width) * 0.7)
}

func (m Model) renderState() string {
	s := m.session

	partner := "(none)"
	if s.Active() {
		partner = s.PartnerName
	}
	location := s.LocationName
	if location == "" {
		location = "-"
	}

	body := titleStyle.Render("DATE") + "\n" +
		"Partner: " + partner + "\n" +
		"Location: " + location + "\n\n" +
		titleStyle.Render("SCORE") + "\n" +
		fmt.Sprintf("%d date points\n\n", s.CumulativeScore) +
		titleStyle.Render("PROGRESS") + "\n" +
		fmt.Sprintf("%d/%d answered\n", s.CurrentIndex, len(s.QuestionOrder)) +
		string(s.Phase()) + "\n"

	return stateStyle.Width(int(float64(m.width) * 0.25)).Height(m.viewport.Height).Render(body)
}

func (m Model) partnerList() string {
	var sb strings.Builder
	for _, p := range m.table.Catalogue() {
		fmt.Fprintf(&sb, "  %s: %s\n", p.Name, strings.Join(p.Locations, ", "))
	}
	return sb.String()
}

func (m Model) runTurn(req skill.Request) tea.Cmd {
	d := m.dispatcher
	return func() tea.Msg {
		return turnMsg{resp: d.Handle(context.Background(), req)}
	}
}

func derefScore(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Run starts the console program and blocks until the player quits.
func Run(d *skill.Dispatcher, sessionID string) error {
	p := tea.NewProgram(NewModel(d, sessionID), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
