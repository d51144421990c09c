package shell_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/dependo/internal/adapters/shell"
	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestExecutor_Execute_MultiLineOutput(t *testing.T) {
	executor := shell.NewExecutor()

	cmd := &domain.Command{
		Node: "out.txt",
		Args: []string{"sh", "-c", "echo line1; echo line2"},
		Dir:  t.TempDir(),
	}

	var stdout bytes.Buffer
	err := executor.Execute(t.Context(), cmd, &stdout, &stdout)
	require.NoError(t, err)

	output := stdout.String()
	assert.Contains(t, output, "line1")
	assert.Contains(t, output, "line2")
}

func TestExecutor_Execute_FragmentedOutput(t *testing.T) {
	executor := shell.NewExecutor()

	cmd := &domain.Command{
		Node: "fragmented",
		Args: []string{"sh", "-c", "printf part1; sleep 0.1; echo part2"},
		Dir:  t.TempDir(),
	}

	var stdout bytes.Buffer
	err := executor.Execute(t.Context(), cmd, &stdout, &stdout)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "part1part2")
}

func TestExecutor_Execute_EnvironmentVariables(t *testing.T) {
	executor := shell.NewExecutor()

	cmd := &domain.Command{
		Node: "env",
		Args: []string{"sh", "-c", "echo $MY_TEST_VAR"},
		Dir:  t.TempDir(),
		Env:  []string{"MY_TEST_VAR=test-value-123"},
	}

	var stdout bytes.Buffer
	err := executor.Execute(t.Context(), cmd, &stdout, &stdout)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "test-value-123")
}

func TestExecutor_Execute_HostEnvironmentFiltered(t *testing.T) {
	t.Setenv("DEPENDO_TEST_SECRET", "leaked")
	executor := shell.NewExecutor()

	cmd := &domain.Command{
		Node: "env",
		Args: []string{"sh", "-c", "echo \"[$DEPENDO_TEST_SECRET]\""},
		Dir:  t.TempDir(),
	}

	var stdout bytes.Buffer
	require.NoError(t, executor.Execute(t.Context(), cmd, &stdout, &stdout))

	assert.Contains(t, stdout.String(), "[]")
	assert.NotContains(t, stdout.String(), "leaked")
}

func TestExecutor_Execute_WorkingDirectory(t *testing.T) {
	executor := shell.NewExecutor()
	dir := t.TempDir()

	cmd := &domain.Command{
		Node: "marker",
		Args: []string{"sh", "-c", "echo built > marker"},
		Dir:  dir,
	}

	require.NoError(t, executor.Execute(t.Context(), cmd, io.Discard, io.Discard))

	data, err := os.ReadFile(filepath.Join(dir, "marker"))
	require.NoError(t, err)
	assert.Equal(t, "built\n", string(data))
}

func TestExecutor_Execute_InvalidCommand(t *testing.T) {
	executor := shell.NewExecutor()

	cmd := &domain.Command{
		Node: "missing",
		Args: []string{"nonexistent-command-xyz123"},
		Dir:  t.TempDir(),
	}

	err := executor.Execute(t.Context(), cmd, io.Discard, io.Discard)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCommandFailed)
}

func TestExecutor_Execute_CommandFailure(t *testing.T) {
	executor := shell.NewExecutor()

	cmd := &domain.Command{
		Node: "fail.o",
		Args: []string{"sh", "-c", "exit 42"},
		Dir:  t.TempDir(),
	}

	err := executor.Execute(t.Context(), cmd, io.Discard, io.Discard)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCommandFailed)

	var zErr *zerr.Error
	require.True(t, errors.As(err, &zErr))
	assert.Equal(t, 42, zErr.Metadata()["exit_code"])
	assert.Equal(t, "fail.o", zErr.Metadata()["node"])
}

func TestExecutor_Execute_EmptyCommand(t *testing.T) {
	executor := shell.NewExecutor()

	require.NoError(t, executor.Execute(t.Context(), &domain.Command{Node: "noop"}, io.Discard, io.Discard))
	require.NoError(t, executor.Execute(t.Context(), nil, io.Discard, io.Discard))
}

func TestExecutor_Execute_AbsolutePath(t *testing.T) {
	executor := shell.NewExecutor()

	cmd := &domain.Command{
		Node: "abs",
		Args: []string{"/bin/sh", "-c", "echo test"},
		Dir:  t.TempDir(),
	}

	var stdout bytes.Buffer
	require.NoError(t, executor.Execute(t.Context(), cmd, &stdout, &stdout))
	assert.Contains(t, stdout.String(), "test")
}

func TestExecutor_Execute_CommandPath(t *testing.T) {
	executor := shell.NewExecutor()

	toolDir := t.TempDir()
	//nolint:gosec // test requires an executable file
	err := os.WriteFile(filepath.Join(toolDir, "my-build-tool"), []byte("#!/bin/sh\necho success\n"), 0o700)
	require.NoError(t, err)

	cmd := &domain.Command{
		Node: "tool",
		Args: []string{"my-build-tool"},
		Dir:  t.TempDir(),
		Env:  []string{"PATH=" + toolDir},
	}

	var stdout bytes.Buffer
	require.NoError(t, executor.Execute(t.Context(), cmd, &stdout, &stdout))
	assert.Contains(t, stdout.String(), "success")
}

func TestExecutor_Execute_ContextCancelled(t *testing.T) {
	executor := shell.NewExecutor()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	cmd := &domain.Command{
		Node: "slow",
		Args: []string{"sh", "-c", "sleep 5"},
		Dir:  t.TempDir(),
	}

	err := executor.Execute(ctx, cmd, io.Discard, io.Discard)
	require.ErrorIs(t, err, domain.ErrCommandFailed)
}
