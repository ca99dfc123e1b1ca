package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLevelTextRoundTrip(t *testing.T) {
	var l Level
	require.NoError(t, l.UnmarshalText([]byte("warn")))
	assert.Equal(t, LevelWarn, l)

	text, err := l.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "warn", string(text))
}

func TestSetLevelPropagatesToChildren(t *testing.T) {
	root := New(LevelInfo)
	child := root.With(String("component", "test"))

	root.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, child.GetLevel())
}

func TestNopAcceptsAllFieldTypes(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.Info("fields",
			Bool("b", true),
			Int("i", 1),
			Int64("i64", 2),
			Uint64("u64", 3),
			Float64("f", 1.5),
			String("s", "x"),
			Error(errors.New("boom")),
			Error(nil),
			Any("any", []int{1, 2}))
	})
}
