package reference

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	now := time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)
	src := Sources{
		Rand: func(n int) (string, error) { return "ABCDEFGHJK"[:n], nil },
		ULID: func() (string, error) { return "01HQZ0000000000000000000AA", nil },
		Seq:  func() (int64, error) { return 42, nil },
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{name: "default", template: "{YYYY}-{MM}-{DD}-{RAND6}", want: "2024-03-07-ABCDEF"},
		{name: "short year", template: "B{YY}{MM}", want: "B2403"},
		{name: "padded sequence", template: "INV-{YYYY}{MM}{DD}-{SEQ6}", want: "INV-20240307-000042"},
		{name: "plain sequence twice", template: "{SEQ}/{SEQ3}", want: "42/042"},
		{name: "ulid", template: "INV-{ULID}", want: "INV-01HQZ0000000000000000000AA"},
		{name: "literal", template: "STATIC", want: "STATIC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.template, now, src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatErrors(t *testing.T) {
	now := time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)
	boom := errors.New("boom")

	tests := []struct {
		name     string
		template string
		src      Sources
	}{
		{name: "empty template", template: " "},
		{name: "unknown token", template: "{WEEK}"},
		{name: "dangling brace", template: "INV-{yyyy}"},
		{name: "rand without width", template: "{RAND}", src: Sources{Rand: func(int) (string, error) { return "", nil }}},
		{name: "sequence missing", template: "{SEQ}"},
		{name: "sequence failure", template: "{SEQ4}", src: Sources{Seq: func() (int64, error) { return 0, boom }}},
		{name: "entropy failure", template: "{RAND4}", src: Sources{Rand: func(int) (string, error) { return "", boom }}},
		{name: "date token with width", template: "{YYYY2}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.template, now, tt.src)
			assert.ErrorIs(t, err, ErrGeneration)
			assert.Empty(t, got)
		})
	}
}
