package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/dependo/internal/adapters/metrics"
	"go.trai.ch/dependo/internal/app"
	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/dependo/internal/core/ports"
	"go.trai.ch/dependo/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type appMocks struct {
	loader   *mocks.MockConfigLoader
	executor *mocks.MockExecutor
	stamper  *mocks.MockStamper
	logger   *mocks.MockLogger
}

func newApp(ctrl *gomock.Controller) (*app.App, *appMocks) {
	m := &appMocks{
		loader:   mocks.NewMockConfigLoader(ctrl),
		executor: mocks.NewMockExecutor(ctrl),
		stamper:  mocks.NewMockStamper(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
	}
	a := app.New(
		m.loader,
		m.executor,
		m.stamper,
		mocks.NewMockScanner(ctrl),
		m.logger,
		metrics.NewPrometheusRecorder(nil),
		func() (ports.Watcher, error) { return mocks.NewMockWatcher(ctrl), nil },
	)
	return a, m
}

func provide(a *app.App, log ports.Logger) ComponentProvider {
	return func(context.Context) (*app.Components, func(), error) {
		return &app.Components{App: a, Logger: log}, func() {}, nil
	}
}

func quiet(a *app.App) {
	a.WithOutput(io.Discard, io.Discard)
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	a, m := newApp(ctrl)

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provide(a, m.logger))
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run logs and returns 1 when a command fails.
func TestRun_ExecutionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	a, m := newApp(ctrl)

	tmp := t.TempDir()
	t.Chdir(tmp)

	m.loader.EXPECT().Load(tmp, "").Return(nil, zerr.Wrap(domain.ErrConfigNotFound, "no rules file"))
	m.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorIs(t, err, domain.ErrConfigNotFound)
	})

	exitCode := run(context.Background(), []string{"build", "target"}, io.Discard, provide(a, m.logger), quiet)
	assert.Equal(t, 1, exitCode)
}

// TestRun_BuildFailureIsNotLoggedTwice verifies that build failures only set the exit code.
func TestRun_BuildFailureIsNotLoggedTwice(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	ctrl := gomock.NewController(t)
	a, m := newApp(ctrl)

	tmp := t.TempDir()
	t.Chdir(tmp)

	m.loader.EXPECT().Load(tmp, "").Return(&domain.Rulebook{
		Path: filepath.Join(tmp, "dependo.yaml"),
		Root: tmp,
		Rules: []domain.RuleSpec{
			{Target: domain.Literal("all"), Requires: []string{"src"}},
		},
	}, nil)
	m.stamper.EXPECT().Stamp(gomock.Any(), domain.Node("all")).Return(int64(0), nil).AnyTimes()
	m.stamper.EXPECT().Stamp(gomock.Any(), domain.Node("src")).Return(int64(1), nil).AnyTimes()

	exitCode := run(context.Background(), []string{"build", "all", "--ci"}, io.Discard, provide(a, m.logger), quiet)
	assert.Equal(t, 1, exitCode)
}

// TestRun_Signal verifies that the context is canceled on signal.
func TestRun_Signal(t *testing.T) {
	ctrl := gomock.NewController(t)
	a, m := newApp(ctrl)

	tmp := t.TempDir()
	t.Chdir(tmp)

	blockCh := make(chan struct{})
	m.loader.EXPECT().Load(gomock.Any(), gomock.Any()).DoAndReturn(func(_, _ string) (*domain.Rulebook, error) {
		select {
		case <-blockCh:
			return nil, context.Canceled
		case <-time.After(5 * time.Second):
			return nil, errors.New("timeout in mock")
		}
	})
	m.logger.EXPECT().Error(gomock.Any()).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan int)

	go func() {
		errCh <- run(ctx, []string{"build", "target"}, io.Discard, provide(a, m.logger), quiet)
	}()

	time.Sleep(100 * time.Millisecond)

	cancel()
	close(blockCh)

	select {
	case ret := <-errCh:
		assert.NotEqual(t, 0, ret)
	case <-time.After(2 * time.Second):
		t.Fatal("TestRun_Signal timed out waiting for run() to return")
	}
}
