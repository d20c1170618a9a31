// internal/tui/view.go
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jason-s-yu/bombparty/internal/views"
)

func (m *Model) View() string {
	var body string
	switch screen := views.Project(m.machine.State()).(type) {
	case views.Connecting:
		body = m.viewConnecting(screen)
	case views.LobbyEntry:
		body = m.viewLobbyEntry(screen)
	case views.WaitingRoom:
		body = viewWaitingRoom(screen)
	case views.ActiveGame:
		body = m.viewGame(screen)
	case views.GameOver:
		body = viewGameOver(screen)
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(body) + "\n"
}

func (m *Model) viewConnecting(s views.Connecting) string {
	lines := []string{titleStyle.Render(s.Text)}
	if m.linkErr != nil {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("Connexion impossible : %v", m.linkErr)))
	}
	lines = append(lines, hintStyle.Render("ctrl+c pour quitter"))
	return strings.Join(lines, "\n\n")
}

func (m *Model) viewLobbyEntry(s views.LobbyEntry) string {
	return strings.Join([]string{
		titleStyle.Render(s.Title),
		s.Tagline,
		m.name.View(),
		button(s.Button, s.CanJoin(m.name.Value())),
	}, "\n\n")
}

func viewWaitingRoom(s views.WaitingRoom) string {
	tags := make([]string, len(s.Players))
	for i, p := range s.Players {
		tags[i] = tagStyle.Render(p)
	}

	lines := []string{
		titleStyle.Render(s.Title),
		hintStyle.Render(s.Hint),
		s.CountLabel,
		strings.Join(tags, " "),
	}
	if s.ShowVote {
		lines = append(lines,
			s.VoteTally,
			button(s.VoteLabel, s.VoteEnabled)+hintStyle.Render("  (entrée ou v)"),
		)
	}
	return strings.Join(lines, "\n\n")
}

func (m *Model) viewGame(s views.ActiveGame) string {
	turn := s.TurnLabel
	if s.MyTurn {
		turn = activeStyle.Render(turn)
	}

	main := []string{
		turn,
		questionStyle.Render(s.Question),
		m.bar.ViewAs(m.timer.Fraction(m.now())),
		m.answer.View() + "  " + button(s.SubmitLabel, s.CanSubmit(m.answer.Value())),
	}
	if s.Ghost != "" {
		main = append(main, ghostStyle.Render(fmt.Sprintf("%s : %s", s.GhostAuthor, s.Ghost)))
	}
	feedback := s.Feedback.Text
	if feedback == "" {
		feedback = " "
	}
	main = append(main, feedbackStyle(s.Feedback.Style).Render(feedback))

	rows := make([]string, len(s.Players))
	for i, p := range s.Players {
		name := p.Name
		if p.Active {
			name = activeStyle.Render("▶ " + name)
		}
		rows[i] = name + " " + heartStyle.Render(p.Hearts)
	}

	view := lipgloss.JoinHorizontal(lipgloss.Top,
		strings.Join(main, "\n\n"),
		"    ",
		panelStyle.Render(strings.Join(rows, "\n")),
	)

	if p := s.Previous; p != nil {
		panel := strings.Join([]string{
			titleStyle.Render(p.Title),
			p.Question,
			hintStyle.Render(p.AnswersLabel),
			strings.Join(p.Answers, ", "),
		}, "\n")
		view = lipgloss.JoinVertical(lipgloss.Left, view, "", panelStyle.Render(panel))
	}
	return view
}

func viewGameOver(s views.GameOver) string {
	return strings.Join([]string{
		titleStyle.Render(s.Title),
		activeStyle.Render(s.Winner),
		hintStyle.Render(s.Hint),
		hintStyle.Render("q pour quitter"),
	}, "\n\n")
}
