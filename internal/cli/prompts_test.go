package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wserr "github.com/showtime-xyz/walletsession/pkg/errors"
)

func TestReadLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"trailing newline", "abandon about\n", "abandon about", nil},
		{"no newline", "  abandon about  ", "abandon about", nil},
		{"first line only", "one\ntwo\n", "one", nil},
		{"empty", "", "", wserr.ErrInvalidInput},
		{"blank line", "   \n", "", wserr.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := readLine(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPromptNewPassword(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		wantErr bool
	}{
		{"matching", []string{"long enough", "long enough"}, false},
		{"too short", []string{"short"}, true},
		{"mismatch", []string{"long enough", "different!"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := promptPasswordFn
			t.Cleanup(func() { promptPasswordFn = orig })

			answers := tt.answers
			promptPasswordFn = func(string) ([]byte, error) {
				next := answers[0]
				answers = answers[1:]
				return []byte(next), nil
			}

			pw, err := promptNewPassword()
			if tt.wantErr {
				require.ErrorIs(t, err, wserr.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.answers[0], string(pw))
		})
	}
}
