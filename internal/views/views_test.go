package views

import (
	"testing"

	"github.com/jason-s-yu/bombparty/internal/protocol"
	"github.com/jason-s-yu/bombparty/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joined(t *testing.T, name string) session.State {
	t.Helper()
	s, out := session.Initial().WithConnectivity(true).Join(name)
	require.NotEmpty(t, out)
	return s
}

func inGame(t *testing.T, me, active string) session.State {
	t.Helper()
	return joined(t, me).Apply(protocol.NewTurn{
		Question: "OUI",
		Players: []protocol.PlayerLives{
			{Name: "Ana", Lives: 2},
			{Name: "Bo", Lives: 0},
			{Name: "Cy", Lives: -1},
		},
		ActivePlayer: active,
	})
}

func TestProjectConnecting(t *testing.T) {
	assert.IsType(t, Connecting{}, Project(session.Initial()))

	lost := joined(t, "Ana").WithConnectivity(false)
	assert.IsType(t, Connecting{}, Project(lost), "lost link degrades to connecting")
}

func TestProjectLobbyEntry(t *testing.T) {
	screen, ok := Project(session.Initial().WithConnectivity(true)).(LobbyEntry)
	require.True(t, ok)
	assert.Equal(t, "Rejoindre", screen.Button)
	assert.False(t, screen.CanJoin("   "))
	assert.True(t, screen.CanJoin(" Ana "))
}

func TestProjectWaitingRoom(t *testing.T) {
	s := joined(t, "Ana")

	empty, ok := Project(s).(WaitingRoom)
	require.True(t, ok)
	assert.False(t, empty.ShowVote)
	assert.Equal(t, "0 joueurs", empty.CountLabel)

	s = s.Apply(protocol.Lobby{Count: 1, Players: []string{"Ana"}})
	one := Project(s).(WaitingRoom)
	assert.Equal(t, "1 joueur", one.CountLabel)
	assert.True(t, one.ShowVote)
	assert.True(t, one.VoteEnabled)
	assert.Equal(t, "Lancer la partie", one.VoteLabel)
	assert.Equal(t, "0 / 1 ont voté", one.VoteTally)

	s, _ = s.VoteStart()
	s = s.Apply(protocol.Lobby{Count: 2, Players: []string{"Ana", "Bo"}, StartVotes: []string{"Ana"}})
	voted := Project(s).(WaitingRoom)
	assert.Equal(t, "2 joueurs", voted.CountLabel)
	assert.Equal(t, []string{"Ana", "Bo"}, voted.Players)
	assert.Equal(t, "1 / 2 ont voté", voted.VoteTally)
	assert.Equal(t, "✓ Vous avez voté", voted.VoteLabel)
	assert.False(t, voted.VoteEnabled)
}

func TestProjectWaitingRoomAllVoted(t *testing.T) {
	s := joined(t, "Ana").Apply(protocol.Lobby{Count: 2, Players: []string{"Ana", "Bo"}, StartVotes: []string{"Bo", "Bo"}})
	screen := Project(s).(WaitingRoom)
	assert.False(t, screen.VoteEnabled)
	assert.Equal(t, "Lancer la partie", screen.VoteLabel)
}

func TestProjectActiveGameMyTurn(t *testing.T) {
	screen, ok := Project(inGame(t, "Ana", "Ana")).(ActiveGame)
	require.True(t, ok)

	assert.True(t, screen.MyTurn)
	assert.True(t, screen.InputEnabled())
	assert.Equal(t, "🎯 C'est ton tour !", screen.TurnLabel)
	assert.Equal(t, "Tape un mot…", screen.Placeholder)
	assert.True(t, screen.CanSubmit("oui"))
	assert.False(t, screen.CanSubmit("  "))
	assert.Equal(t, []PlayerRow{
		{Name: "Ana", Hearts: "♥♥", Active: true},
		{Name: "Bo", Hearts: ""},
		{Name: "Cy", Hearts: ""},
	}, screen.Players)
	assert.Nil(t, screen.Previous)
}

func TestProjectActiveGameOtherTurn(t *testing.T) {
	screen := Project(inGame(t, "Bo", "Ana")).(ActiveGame)
	assert.False(t, screen.MyTurn)
	assert.False(t, screen.InputEnabled())
	assert.Equal(t, "⏳ Tour de Ana", screen.TurnLabel)
	assert.Equal(t, "Ce n'est pas ton tour", screen.Placeholder)
	assert.False(t, screen.CanSubmit("oui"))
}

func TestGhostHidesOwnDraft(t *testing.T) {
	others := inGame(t, "Bo", "Ana").Apply(protocol.Typing{Player: "Ana", Text: "ou"})
	screen := Project(others).(ActiveGame)
	assert.Equal(t, "ou", screen.Ghost)
	assert.Equal(t, "Ana", screen.GhostAuthor)

	mine := inGame(t, "Ana", "Ana").Apply(protocol.Typing{Player: "Ana", Text: "ou"})
	assert.Empty(t, Project(mine).(ActiveGame).Ghost)

	cleared := others.Apply(protocol.Typing{Player: "Ana", Text: ""})
	assert.Empty(t, Project(cleared).(ActiveGame).Ghost)
}

func TestFeedbackLine(t *testing.T) {
	s := inGame(t, "Ana", "Ana")
	assert.Equal(t, FeedbackLine{Style: "summary"}, Project(s).(ActiveGame).Feedback)

	s = s.Apply(protocol.Explode{Player: "Bo", Eliminated: true})
	assert.Equal(t, FeedbackLine{Text: "💥 Bo éliminé !", Style: "explode"}, Project(s).(ActiveGame).Feedback)

	s = s.Apply(protocol.NewTurn{
		Question:                "ENT",
		ActivePlayer:            "Bo",
		PreviousQuestion:        "OUI",
		PreviousQuestionAnswers: []string{"oui", "fouine"},
		PreviousAnswers:         []byte(`["dent","vent"]`),
	})
	screen := Project(s).(ActiveGame)
	assert.Equal(t, FeedbackLine{Text: "oui, fouine", Style: "summary"}, screen.Feedback)
	require.NotNil(t, screen.Previous)
	assert.Equal(t, "OUI", screen.Previous.Question)
	assert.Equal(t, []string{"oui", "fouine"}, screen.Previous.Answers)
}

// The server may put the accepted answers to the new question in
// previousAnswers. They must never reach the screen.
func TestTurnSummaryHidesCurrentAnswers(t *testing.T) {
	frames := []string{
		`{"type":"NEW_TURN","question":"OUI","players":[{"name":"Ana","lives":3},{"name":"Bo","lives":3}],` +
			`"activePlayer":"Ana","previousAnswers":["oui","ouistiti","fouine"],` +
			`"previousQuestion":"","previousQuestionAnswers":[]}`,
		`{"type":"NEW_TURN","question":"ENT","players":[{"name":"Ana","lives":3},{"name":"Bo","lives":3}],` +
			`"activePlayer":"Bo","previousAnswers":["dent","vent","menteur"],` +
			`"previousQuestion":"OUI","previousQuestionAnswers":["ouistiti"]}`,
	}
	current := [][]string{{"oui", "ouistiti", "fouine"}, {"dent", "vent", "menteur"}}
	summaries := []string{"", "ouistiti"}

	s := joined(t, "Ana")
	for i, raw := range frames {
		msg, err := protocol.Decode([]byte(raw))
		require.NoError(t, err)
		s = s.Apply(msg)

		screen, ok := Project(s).(ActiveGame)
		require.True(t, ok)
		assert.Equal(t, FeedbackLine{Text: summaries[i], Style: "summary"}, screen.Feedback)
		for _, word := range current[i] {
			assert.NotContains(t, screen.Feedback.Text, word)
			if screen.Previous != nil {
				assert.NotContains(t, screen.Previous.Answers, word)
			}
		}
	}
}

func TestProjectGameOverSurvivesDisconnect(t *testing.T) {
	s := inGame(t, "Ana", "Ana").Apply(protocol.GameOver{Winner: "Ana"})
	screen, ok := Project(s).(GameOver)
	require.True(t, ok)
	assert.Equal(t, "Ana", screen.Winner)
	assert.Equal(t, "🏆 Victoire !", screen.Title)

	// Terminal state ignores link changes, so the screen stays.
	assert.Equal(t, screen, Project(s.WithConnectivity(false)))
}
