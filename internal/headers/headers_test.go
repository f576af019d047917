package headers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]string
		want string
	}{
		{name: "nil", in: nil, want: ""},
		{name: "empty", in: map[string]string{}, want: ""},
		{name: "single", in: map[string]string{"X-Token": "abc"}, want: "X-Token: abc"},
		{
			name: "case-insensitive order",
			in:   map[string]string{"B": "2", "a": "1"},
			want: "a: 1\nB: 2",
		},
		{
			name: "ties ordered by raw name",
			in:   map[string]string{"x-id": "2", "X-ID": "1", "Accept": "json"},
			want: "Accept: json\nX-ID: 1\nx-id: 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{name: "single", in: "X-Token: abc", want: map[string]string{"X-Token": "abc"}},
		{name: "whitespace tolerance", in: "  X :  1  ", want: map[string]string{"X": "1"}},
		{name: "duplicate keeps last", in: "X: 1\nX: 2", want: map[string]string{"X": "2"}},
		{name: "value keeps later colons", in: "Forwarded: for=1.2.3.4:80", want: map[string]string{"Forwarded": "for=1.2.3.4:80"}},
		{name: "blank lines skipped", in: "\n\nA: 1\n   \nB: 2\n", want: map[string]string{"A": "1", "B": "2"}},
		{name: "crlf", in: "A: 1\r\nB: 2\r\n", want: map[string]string{"A": "1", "B": "2"}},
		{name: "lone cr", in: "A: 1\rB: 2", want: map[string]string{"A": "1", "B": "2"}},
		{name: "unicode line separator", in: "A: 1\u2028B: 2", want: map[string]string{"A": "1", "B": "2"}},
		{name: "case sensitive keys", in: "a: 1\nA: 2", want: map[string]string{"a": "1", "A": "2"}},
		{name: "blank input is absent", in: "   \n\n  ", want: nil},
		{name: "empty input is absent", in: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line int
	}{
		{name: "missing colon", in: "no-colon-here", line: 1},
		{name: "empty name", in: ": value", line: 1},
		{name: "empty value", in: "name:", line: 1},
		{name: "whitespace value", in: "name:   ", line: 1},
		{name: "bad line after good ones", in: "A: 1\n\nbroken", line: 3},
		{name: "crlf line numbers", in: "A: 1\r\nB: 2\r\nbroken", line: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, ErrInvalidFormat))

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(""))
	assert.NoError(t, Validate("  \n\t\n"))
	assert.NoError(t, Validate("A: b"))
	assert.ErrorIs(t, Validate("A"), ErrInvalidFormat)
}

func TestRoundTrip(t *testing.T) {
	maps := []map[string]string{
		nil,
		{},
		{"A": "1"},
		{"Authorization": "Bearer abc def", "x-lower": "v", "X-Upper": "w"},
	}
	for _, m := range maps {
		got, err := Parse(Format(m))
		require.NoError(t, err)
		if len(m) == 0 {
			assert.Nil(t, got)
			continue
		}
		assert.Equal(t, m, got)
	}
}

func TestParseIdempotent(t *testing.T) {
	texts := []string{
		"B: 2\na: 1",
		"  X :  1  \nX: 3\n\nY:z",
		"\n",
	}
	for _, text := range texts {
		first, err := Parse(text)
		require.NoError(t, err)
		second, err := Parse(Format(first))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, map[string]string{}))
	assert.True(t, Equal(map[string]string{"A": "1"}, map[string]string{"A": "1"}))
	assert.False(t, Equal(map[string]string{"A": "1"}, map[string]string{"A": "2"}))
	assert.False(t, Equal(nil, map[string]string{"A": "1"}))
}

func TestApply(t *testing.T) {
	h := http.Header{}
	h.Set("X-Token", "old")
	Apply(h, map[string]string{"x-token": "new", "Cf-Access-Client-Id": "id"})
	assert.Equal(t, "new", h.Get("X-Token"))
	assert.Equal(t, "id", h.Get("CF-Access-Client-Id"))
	assert.Len(t, h, 2)
}
