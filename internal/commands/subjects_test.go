package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/touchline/internal/core/thread"
)

func TestParseSubjects(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []thread.Subject
		wantErr string
	}{
		{
			name: "pair",
			args: []string{"players", "Heung-Min Son"},
			want: []thread.Subject{thread.NewSubject("players", "Heung-Min Son")},
		},
		{
			name: "slash form",
			args: []string{"teams/Tottenham"},
			want: []thread.Subject{thread.NewSubject("teams", "Tottenham")},
		},
		{
			name: "mixed",
			args: []string{"teams/Tottenham", "players", "Kane"},
			want: []thread.Subject{
				thread.NewSubject("teams", "Tottenham"),
				thread.NewSubject("players", "Kane"),
			},
		},
		{
			name: "keyword keeps later slashes",
			args: []string{"matches/2024/05/11"},
			want: []thread.Subject{thread.NewSubject("matches", "2024/05/11")},
		},
		{
			name:    "dangling category",
			args:    []string{"players"},
			wantErr: "missing keyword",
		},
		{
			name:    "empty keyword",
			args:    []string{"players/"},
			wantErr: "keyword is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSubjects(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSubject_ExactlyOne(t *testing.T) {
	_, err := parseSubject([]string{"a/b", "c/d"})
	assert.Error(t, err)

	_, err = parseSubject(nil)
	assert.Error(t, err)

	s, err := parseSubject([]string{"players", "Son"})
	require.NoError(t, err)
	assert.Equal(t, "players/Son", s.String())
}
