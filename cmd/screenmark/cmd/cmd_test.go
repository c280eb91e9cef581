package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/screenmark/internal/embed"
)

func TestParseScheme(t *testing.T) {
	tests := []struct {
		name    string
		scheme  embed.Scheme
		hybrid  bool
		wantErr bool
	}{
		{"hybrid", 0, true, false},
		{"lsb", embed.SchemeLSB, false, false},
		{"regional", embed.SchemeRegional, false, false},
		{"spread", embed.SchemeSpread, false, false},
		{"frequency", embed.SchemeFrequency, false, false},
		{"stamp", embed.SchemeStamp, false, false},
		{"qr", 0, false, true},
		{"", 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheme, hybrid, err := parseScheme(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, scheme)
			assert.Equal(t, tt.hybrid, hybrid)
		})
	}
}

func TestLossy(t *testing.T) {
	assert.True(t, lossy("capture.jpg"))
	assert.True(t, lossy("CAPTURE.JPEG"))
	assert.True(t, lossy("anim.gif"))
	assert.False(t, lossy("capture.png"))
	assert.False(t, lossy("capture.tiff"))
	assert.False(t, lossy("noext"))
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := GetRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["embed"])
	assert.True(t, names["extract"])
	assert.True(t, names["config"])
}

func TestEmbedCommand_RequiredFlags(t *testing.T) {
	err := runEmbed(embedCmd, []string{"in.png"})
	require.ErrorContains(t, err, "--subject is required")
}
