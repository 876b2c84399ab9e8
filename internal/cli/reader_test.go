package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReader_ReadLine(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedValue string
	}{
		{name: "successful read", input: "test input\n", expectedValue: "test input"},
		{name: "read with extra whitespace", input: "  test input  \n", expectedValue: "test input"},
		{name: "empty line", input: "\n", expectedValue: ""},
		{name: "no trailing newline", input: "last", expectedValue: "last"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewLineReader(strings.NewReader(tt.input))
			result, err := reader.ReadLine(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expectedValue, result)
		})
	}
}

func TestLineReader_EOF(t *testing.T) {
	reader := NewLineReader(strings.NewReader(""))
	_, err := reader.ReadLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReader_ContextCancellation(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	reader := NewLineReader(pr)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := reader.ReadLine(ctx)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestLineReader_Prompt(t *testing.T) {
	var out bytes.Buffer
	reader := NewLineReader(strings.NewReader("\nalice@example.com\n"))
	ctx := context.Background()

	answer, err := reader.Prompt(ctx, &out, "Email", "me@example.com")
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", answer)
	assert.Contains(t, out.String(), "Email [me@example.com]")

	answer, err = reader.Prompt(ctx, &out, "Email", "")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", answer)
}

func TestNewLineReader_NilPanics(t *testing.T) {
	assert.Panics(t, func() { NewLineReader(nil) })
}
