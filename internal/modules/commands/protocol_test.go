package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "!voice-claim", Format("claim", ""))
	assert.Equal(t, "!voice-ban <@1>", Format("ban", Mention("1")))
}

func TestParseMention(t *testing.T) {
	for input, want := range map[string]string{
		"<@123>":  "123",
		"<@!123>": "123",
		"123":     "123",
	} {
		got, ok := ParseMention(input)
		require.True(t, ok, input)
		assert.Equal(t, want, got)
	}
	for _, input := range []string{"", "<@abc>", "<#123>", "@123", "<@123", "12a"} {
		_, ok := ParseMention(input)
		assert.False(t, ok, input)
	}
}

func TestResolveLimit(t *testing.T) {
	tests := []struct {
		arg     string
		current int
		want    int
	}{
		{"+5", 10, 15},
		{"-5", 10, 5},
		{"-5", 2, 0},
		{"+1", 99, 99},
		{"0", 7, 0},
		{"12", 0, 12},
		{"+9223372036854775807", 10, 99},
		{"+99999999999999999999", 10, 99},
		{"-9223372036854775807", 10, 0},
		{"100", 5, 99},
		{"99999999999999999999", 5, 99},
	}
	for _, tt := range tests {
		got, err := ResolveLimit(tt.arg, tt.current)
		require.NoError(t, err, tt.arg)
		assert.Equal(t, tt.want, got, tt.arg)
	}

	for _, arg := range []string{"", "+", "-", "abc", "1.5", "+-1"} {
		_, err := ResolveLimit(arg, 3)
		assert.ErrorIs(t, err, ErrInvalidLimit, arg)
	}
}

func TestParseRenamePresets(t *testing.T) {
	got := ParseRenamePresets(`Chill, Gaming\, Music ,,Study`)
	assert.Equal(t, []string{"Chill", "Gaming, Music", "Study"}, got)
	assert.Empty(t, ParseRenamePresets(""))
}
