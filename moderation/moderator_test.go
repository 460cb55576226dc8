package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestModerator(t *testing.T) Moderator {
	t.Helper()
	moderator, err := NewModerator([]string{"idiot", "scum"}, '*')
	require.NoError(t, err)
	return moderator
}

func TestCensor_Masks_Blacklisted_Word(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t)

	// When censoring a message containing a blacklisted word
	censored, matched := moderator.Censor("you idiot")

	// Then only the word is masked, spacing is preserved
	req.True(matched)
	req.Equal("you *****", censored)
}

func TestCensor_Clean_Message_Untouched(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t)

	censored, matched := moderator.Censor("see you tomorrow at 10")

	req.False(matched)
	req.Equal("see you tomorrow at 10", censored)
}

func TestCensor_Defeats_Leetspeak(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t)

	censored, matched := moderator.Censor("what an 1d10t")

	req.True(matched)
	req.Equal("what an *****", censored)
}

func TestCensor_Case_Insensitive(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t)

	censored, matched := moderator.Censor("IDIOT move")

	req.True(matched)
	req.Equal("***** move", censored)
}

func TestCensor_Empty_Message(t *testing.T) {
	req := require.New(t)
	moderator := newTestModerator(t)

	censored, matched := moderator.Censor("")

	req.False(matched)
	req.Empty(censored)
}

func TestLoadCensoredWords_Embeds_All_Languages(t *testing.T) {
	req := require.New(t)

	data, err := LoadCensoredWords()

	req.NoError(err)
	req.NotEmpty(data.Words)
	req.Contains(data.Languages, "en")
	req.Contains(data.Languages, "fr")
}
