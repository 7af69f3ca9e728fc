package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestCommandLine() (*commandLine, *bytes.Buffer, *int) {
	out := &bytes.Buffer{}
	connects := 0
	cli := newCommandLine(out)
	cli.connect = func(context.Context, *commandLine) error {
		connects++
		return errors.New("no database in tests")
	}
	return cli, out, &connects
}

func TestCommandLine_Usage(t *testing.T) {
	cli, out, connects := newTestCommandLine()

	err := cli.run(context.Background(), []string{"resultctl"})
	assert.ErrorIs(t, err, errHelp)
	assert.Contains(t, out.String(), "create-classes")

	err = cli.run(context.Background(), []string{"resultctl", "unknown"})
	assert.ErrorIs(t, err, errHelp)
	assert.Equal(t, 0, *connects)
}

func TestCommandLine_CreateClassesNeedsCount(t *testing.T) {
	cli, _, connects := newTestCommandLine()

	err := cli.run(context.Background(), []string{"resultctl", "create-classes"})
	assert.ErrorIs(t, err, errHelp)
	assert.Equal(t, 0, *connects)

	err = cli.run(context.Background(), []string{"resultctl", "create-classes", "-count", "5"})
	assert.EqualError(t, err, "no database in tests")
	assert.Equal(t, 1, *connects)
}

func TestCommandLine_RecomputeRejectsBadClassID(t *testing.T) {
	cli, _, connects := newTestCommandLine()

	err := cli.run(context.Background(), []string{"resultctl", "recompute", "-class", "class-1"})
	assert.ErrorContains(t, err, "invalid class id")
	assert.Equal(t, 0, *connects)
}

func TestCommandLine_HashPassword(t *testing.T) {
	original := readPasswordFunc
	defer func() { readPasswordFunc = original }()

	t.Run("Success", func(t *testing.T) {
		readPasswordFunc = func(int) ([]byte, error) { return []byte("s3cret"), nil }
		cli, out, connects := newTestCommandLine()

		require.NoError(t, cli.run(context.Background(), []string{"resultctl", "hash-password"}))
		assert.Equal(t, 0, *connects)

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		hash := lines[len(lines)-1]
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
	})

	t.Run("EmptyPassword", func(t *testing.T) {
		readPasswordFunc = func(int) ([]byte, error) { return nil, nil }
		cli, _, _ := newTestCommandLine()

		err := cli.run(context.Background(), []string{"resultctl", "hash-password"})
		assert.ErrorIs(t, err, errHelp)
	})
}
