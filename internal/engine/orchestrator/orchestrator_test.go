package orchestrator_test

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/dependo/internal/core/ports"
	"go.trai.ch/dependo/internal/core/ports/mocks"
	"go.trai.ch/dependo/internal/engine/orchestrator"
	"go.trai.ch/dependo/internal/engine/rules"
	"go.uber.org/mock/gomock"
)

// stepLog records the nodes whose build step ran.
type stepLog struct {
	mu    sync.Mutex
	nodes []domain.Node
}

func (l *stepLog) step(_ context.Context, c domain.Captures) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nodes = append(l.nodes, domain.Node(c.Get(0)))
	return nil
}

func (l *stepLog) count(node domain.Node) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, got := range l.nodes {
		if got == node {
			n++
		}
	}
	return n
}

func (l *stepLog) sorted() []domain.Node {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := slices.Clone(l.nodes)
	slices.Sort(out)
	return out
}

func mapStamper(stamps map[domain.Node]int64) domain.Stamper[int64] {
	return func(_ context.Context, node domain.Node) (int64, error) {
		return stamps[node], nil
	}
}

// compilerRules registers the classic object file example:
//
//	%.o: %.c
//	output: module-a.o module-b.o
//	all: output
func compilerRules(t *testing.T, steps *stepLog) *rules.Builder {
	t.Helper()
	b := rules.NewBuilder()
	require.NoError(t, b.AddDependency(
		domain.MustPattern(`^(.*)\.o$`),
		domain.RequiresFunc(func(_ context.Context, c domain.Captures) (domain.MultiNode, error) {
			return domain.NodesOf(domain.Node(c.Get(1) + ".c")), nil
		}),
	))
	require.NoError(t, b.AddDependency(domain.Literal("output"), domain.RequiresAll("module-a.o", "module-b.o")))
	require.NoError(t, b.AddDependency(domain.Literal("all"), domain.RequiresAll("output")))
	require.NoError(t, b.AddBuildStep(domain.MustPattern(`^.*\.o$`), steps.step))
	require.NoError(t, b.AddBuildStep(domain.Literal("output"), steps.step))
	return b
}

var compilerStamps = map[domain.Node]int64{
	"module-a.c": 800,
	"module-a.o": 1000,
	"module-b.c": 2300,
	"module-b.o": 2000,
	"output":     3000,
	"all":        0,
}

func TestBuild_CompilerScenario(t *testing.T) {
	steps := &stepLog{}
	o := orchestrator.New(compilerRules(t, steps).Build(), mapStamper(compilerStamps))

	err := o.Build(t.Context(), domain.Node("all"))

	require.ErrorIs(t, err, domain.ErrNoBuildStep)
	assert.Contains(t, err.Error(), "all")
	assert.Equal(t, 1, steps.count("module-b.o"), "stale object must be compiled once")
	assert.Zero(t, steps.count("module-a.o"), "fresh object must not be compiled")
	assert.Zero(t, steps.count("output"), "output is newer than its objects")
}

func TestBuild_RepeatedRunsMakeSameDecisions(t *testing.T) {
	var runs [][]domain.Node
	for range 3 {
		steps := &stepLog{}
		o := orchestrator.New(compilerRules(t, steps).Build(), mapStamper(compilerStamps))
		require.NoError(t, o.Build(t.Context(), domain.NodesOf("output")))
		runs = append(runs, steps.sorted())
	}

	assert.Equal(t, []domain.Node{"module-b.o"}, runs[0])
	assert.Equal(t, runs[0], runs[1])
	assert.Equal(t, runs[1], runs[2])
}

func TestBuild_DiamondExecutesSharedNodeOncePerPath(t *testing.T) {
	steps := &stepLog{}
	b := rules.NewBuilder()
	require.NoError(t, b.AddDependency(domain.Literal("top"), domain.RequiresAll("left", "right")))
	require.NoError(t, b.AddDependency(domain.Literal("left"), domain.Requires("shared")))
	require.NoError(t, b.AddDependency(domain.Literal("right"), domain.Requires("shared")))
	require.NoError(t, b.AddDependency(domain.Literal("shared"), domain.Requires("src")))
	require.NoError(t, b.AddBuildStep(domain.MustPattern(".*"), steps.step))

	stamps := map[domain.Node]int64{"src": 2, "shared": 1, "left": 3, "right": 3, "top": 4}
	o := orchestrator.New(b.Build(), mapStamper(stamps))

	require.NoError(t, o.Build(t.Context(), domain.Node("top")))
	assert.Equal(t, 2, steps.count("shared"), "no memoisation: one execution per path")
	assert.Equal(t, []domain.Node{"shared", "shared"}, steps.sorted())
}

func TestBuild_FlattensRoots(t *testing.T) {
	steps := &stepLog{}
	b := rules.NewBuilder()
	require.NoError(t, b.AddDependency(domain.MustPattern("^[a-c]$"), domain.Requires("src")))
	require.NoError(t, b.AddBuildStep(domain.MustPattern("^[a-c]$"), steps.step))
	stamps := map[domain.Node]int64{"src": 10}
	o := orchestrator.New(b.Build(), mapStamper(stamps))

	roots := domain.Nodes{domain.Nodes{domain.Node("a"), domain.Nodes{domain.Node("b")}}, domain.Node("c")}
	require.NoError(t, o.Build(t.Context(), roots))
	assert.Equal(t, []domain.Node{"a", "b", "c"}, steps.sorted())
}

func TestBuild_CycleFails(t *testing.T) {
	b := rules.NewBuilder()
	require.NoError(t, b.AddDependency(domain.Literal("a"), domain.Requires("b")))
	require.NoError(t, b.AddDependency(domain.Literal("b"), domain.Requires("a")))
	o := orchestrator.New(b.Build(), mapStamper(nil))

	err := o.Build(t.Context(), domain.Node("a"))
	require.ErrorIs(t, err, domain.ErrDependencyCycle)
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestBuild_SelfMatchingPatternFails(t *testing.T) {
	b := rules.NewBuilder()
	require.NoError(t, b.AddDependency(domain.MustPattern(".*"), domain.Requires("src")))
	o := orchestrator.New(b.Build(), mapStamper(nil))

	err := o.Build(t.Context(), domain.Node("app"))
	require.ErrorIs(t, err, domain.ErrDependencyCycle)
	assert.Contains(t, err.Error(), "src -> src")
}

func TestBuild_EmptyRootsSucceed(t *testing.T) {
	o := orchestrator.New(rules.NewBuilder().Build(), mapStamper(nil))
	assert.NoError(t, o.Build(t.Context(), domain.Nodes{}))
}

func TestBuild_UpToDateLeafNeedsNoBuildStep(t *testing.T) {
	o := orchestrator.New(rules.NewBuilder().Build(), mapStamper(nil))
	assert.NoError(t, o.Build(t.Context(), domain.Node("plain-file.c")))
}

func TestBuild_DependencyFailureSkipsParent(t *testing.T) {
	ctrl := gomock.NewController(t)
	stamper := mocks.NewMockStamper(ctrl)
	boom := errors.New("compiler crashed")

	b := rules.NewBuilder()
	require.NoError(t, b.AddDependency(domain.Literal("app"), domain.Requires("lib.o")))
	require.NoError(t, b.AddDependency(domain.Literal("lib.o"), domain.Requires("lib.c")))
	require.NoError(t, b.AddBuildStep(domain.Literal("lib.o"), func(context.Context, domain.Captures) error {
		return boom
	}))
	require.NoError(t, b.AddBuildStep(domain.Literal("app"), func(context.Context, domain.Captures) error {
		t.Error("parent build step must not run")
		return nil
	}))

	// lib.c is stamped as a leaf and again as a dependency of lib.o.
	stamper.EXPECT().Stamp(gomock.Any(), domain.Node("lib.c")).Return(int64(2), nil).Times(2)
	stamper.EXPECT().Stamp(gomock.Any(), domain.Node("lib.o")).Return(int64(1), nil)
	// app is never stamped.

	o := orchestrator.New(b.Build(), stamper.Stamp)
	err := o.Build(t.Context(), domain.Node("app"))

	require.ErrorIs(t, err, domain.ErrBuildStepFailed)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "lib.o")
}

func TestBuild_StamperFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		stamper := mocks.NewMockStamper(ctrl)
		denied := errors.New("permission denied")

		b := rules.NewBuilder()
		require.NoError(t, b.AddDependency(domain.Literal("out"), domain.Requires("in")))
		require.NoError(t, b.AddBuildStep(domain.Literal("out"), func(context.Context, domain.Captures) error {
			t.Error("build step must not run")
			return nil
		}))

		stamper.EXPECT().Stamp(gomock.Any(), domain.Node("out")).Return(int64(0), denied)
		// The second stamp of "in" races with the failure of "out".
		stamper.EXPECT().Stamp(gomock.Any(), domain.Node("in")).Return(int64(1), nil).MinTimes(1).MaxTimes(2)

		o := orchestrator.New(b.Build(), stamper.Stamp)
		err := o.Build(t.Context(), domain.Node("out"))

		require.ErrorIs(t, err, domain.ErrStampFailed)
		assert.ErrorIs(t, err, denied)
		synctest.Wait()
	})
}

func TestBuild_DynamicRequirementFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	stamper := mocks.NewMockStamper(ctrl)
	// No Stamp calls expected.

	boom := errors.New("unreadable")
	b := rules.NewBuilder()
	require.NoError(t, b.AddDependency(domain.MustPattern(`\.o$`), domain.RequiresFunc(
		func(context.Context, domain.Captures) (domain.MultiNode, error) { return nil, boom },
	)))

	o := orchestrator.New(b.Build(), stamper.Stamp)
	err := o.Build(t.Context(), domain.Node("x.o"))

	require.ErrorIs(t, err, domain.ErrDependencyResolution)
	assert.ErrorIs(t, err, boom)
}

func TestBuild_FirstRootFailureWins(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		fast := errors.New("fast failure")
		b := rules.NewBuilder()
		require.NoError(t, b.AddDependency(domain.MustPattern("^(fast|slow)$"), domain.Requires("src")))
		require.NoError(t, b.AddBuildStep(domain.Literal("fast"), func(context.Context, domain.Captures) error {
			time.Sleep(time.Millisecond)
			return fast
		}))
		require.NoError(t, b.AddBuildStep(domain.Literal("slow"), func(ctx context.Context, _ domain.Captures) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Hour):
				return errors.New("slow failure")
			}
		}))

		o := orchestrator.New(b.Build(), mapStamper(map[domain.Node]int64{"src": 1}))
		start := time.Now()
		err := o.Build(t.Context(), domain.NodesOf("slow", "fast"))

		require.ErrorIs(t, err, fast)
		assert.Equal(t, time.Millisecond, time.Since(start))
		synctest.Wait()
	})
}

func TestBuild_WithJobsLimitsConcurrentSteps(t *testing.T) {
	build := func(t *testing.T, opts ...orchestrator.Option) time.Duration {
		t.Helper()
		b := rules.NewBuilder()
		require.NoError(t, b.AddDependency(domain.MustPattern("^[a-c]$"), domain.Requires("src")))
		require.NoError(t, b.AddBuildStep(domain.MustPattern("^[a-c]$"), func(context.Context, domain.Captures) error {
			time.Sleep(10 * time.Millisecond)
			return nil
		}))
		o := orchestrator.New(b.Build(), mapStamper(map[domain.Node]int64{"src": 1}), opts...)

		start := time.Now()
		require.NoError(t, o.Build(t.Context(), domain.NodesOf("a", "b", "c")))
		return time.Since(start)
	}

	synctest.Test(t, func(t *testing.T) {
		assert.Equal(t, 10*time.Millisecond, build(t))
		assert.Equal(t, 30*time.Millisecond, build(t, orchestrator.WithJobs(1)))
		assert.Equal(t, 20*time.Millisecond, build(t, orchestrator.WithJobs(2)))
		assert.Equal(t, 10*time.Millisecond, build(t, orchestrator.WithJobs(0)))
	})
}

func TestBuild_PhonyIsInertByDefault(t *testing.T) {
	steps := &stepLog{}
	b := rules.NewBuilder()
	require.NoError(t, b.AddDependency(domain.Literal("all"), domain.Requires("output")))
	require.NoError(t, b.AddPhonyTarget(domain.Literal("all")))
	require.NoError(t, b.AddBuildStep(domain.Literal("all"), steps.step))
	stamps := map[domain.Node]int64{"all": 5, "output": 1}

	o := orchestrator.New(b.Build(), mapStamper(stamps))
	require.NoError(t, o.Build(t.Context(), domain.Node("all")))
	assert.Zero(t, steps.count("all"))

	o = orchestrator.New(b.Build(), mapStamper(stamps), orchestrator.WithPhonyAlwaysStale())
	require.NoError(t, o.Build(t.Context(), domain.Node("all")))
	assert.Equal(t, 1, steps.count("all"))
}

func TestExecute(t *testing.T) {
	steps := &stepLog{}
	b := rules.NewBuilder()
	require.NoError(t, b.AddBuildStep(domain.MustPattern(`^(.*)\.o$`), steps.step))
	o := orchestrator.New(b.Build(), mapStamper(nil))

	require.NoError(t, o.Execute(t.Context(), "a.o"))
	assert.Equal(t, 1, steps.count("a.o"))

	err := o.Execute(t.Context(), "a.c")
	require.ErrorIs(t, err, domain.ErrNoBuildStep)
	assert.Contains(t, err.Error(), "a.c")
}

func TestExecute_StepSeesItsNode(t *testing.T) {
	var got domain.Node
	b := rules.NewBuilder()
	require.NoError(t, b.AddBuildStep(domain.MustPattern(`\.o$`), func(ctx context.Context, c domain.Captures) error {
		assert.Equal(t, ".o", c.Get(0))
		got, _ = domain.NodeFromContext(ctx)
		return nil
	}))

	o := orchestrator.New(b.Build(), mapStamper(nil))
	require.NoError(t, o.Execute(t.Context(), "lib/a.o"))
	assert.Equal(t, domain.Node("lib/a.o"), got)
}

func TestExecute_StreamsOutputToSpan(t *testing.T) {
	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)

	tracer.EXPECT().Start(gomock.Any(), "a.o").DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		},
	)
	span.EXPECT().Write([]byte("compiling\n")).Return(10, nil)
	span.EXPECT().End()

	b := rules.NewBuilder()
	require.NoError(t, b.AddBuildStep(domain.Literal("a.o"), func(ctx context.Context, _ domain.Captures) error {
		_, err := io.WriteString(orchestrator.Output(ctx), "compiling\n")
		return err
	}))

	o := orchestrator.New(b.Build(), mapStamper(nil), orchestrator.WithTracer(tracer))
	require.NoError(t, o.Execute(t.Context(), "a.o"))
}

func TestExecute_RecordsErrorOnSpan(t *testing.T) {
	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)
	boom := errors.New("boom")

	tracer.EXPECT().Start(gomock.Any(), "a.o").Return(t.Context(), span)
	span.EXPECT().RecordError(boom)
	span.EXPECT().End()

	b := rules.NewBuilder()
	require.NoError(t, b.AddBuildStep(domain.Literal("a.o"), func(context.Context, domain.Captures) error {
		return boom
	}))

	o := orchestrator.New(b.Build(), mapStamper(nil), orchestrator.WithTracer(tracer))
	assert.ErrorIs(t, o.Execute(t.Context(), "a.o"), domain.ErrBuildStepFailed)
}

func TestBuild_EmitsPlanAndRecordsMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)
	recorder := mocks.NewMockRecorder(ctrl)

	tracer.EXPECT().EmitPlan(gomock.Any(), []string{"out"})
	tracer.EXPECT().Start(gomock.Any(), "out").Return(t.Context(), span)
	span.EXPECT().End()

	gomock.InOrder(
		recorder.EXPECT().SetRunningSteps(1),
		recorder.EXPECT().ObserveBuildStep(gomock.Any(), true),
		recorder.EXPECT().SetRunningSteps(0),
	)
	recorder.EXPECT().ObserveNode(domain.NodeStatusUpToDate, gomock.Any())
	recorder.EXPECT().ObserveNode(domain.NodeStatusBuilt, gomock.Any())
	recorder.EXPECT().ObserveBuild(gomock.Any(), true)

	steps := &stepLog{}
	b := rules.NewBuilder()
	require.NoError(t, b.AddDependency(domain.Literal("out"), domain.Requires("in")))
	require.NoError(t, b.AddBuildStep(domain.Literal("out"), steps.step))

	o := orchestrator.New(
		b.Build(),
		mapStamper(map[domain.Node]int64{"in": 2, "out": 1}),
		orchestrator.WithTracer(tracer),
		orchestrator.WithRecorder(recorder),
	)
	require.NoError(t, o.Build(t.Context(), domain.Node("out")))
}

func TestStart_ReportsToCallback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		steps := &stepLog{}
		o := orchestrator.New(compilerRules(t, steps).Build(), mapStamper(compilerStamps))

		var got error
		called := 0
		o.Start(t.Context(), domain.Node("all"), func(err error) {
			called++
			got = err
		})
		synctest.Wait()

		assert.Equal(t, 1, called)
		assert.ErrorIs(t, got, domain.ErrNoBuildStep)
	})
}

func TestStart_NilCallbackLogsFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		logger := mocks.NewMockLogger(ctrl)
		logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
			assert.ErrorIs(t, err, domain.ErrNoBuildStep)
		})

		b := rules.NewBuilder()
		require.NoError(t, b.AddDependency(domain.Literal("x"), domain.Requires("dep")))
		o := orchestrator.New(b.Build(), mapStamper(map[domain.Node]int64{"dep": 1}), orchestrator.WithLogger(logger))

		assert.NotPanics(t, func() { o.Start(t.Context(), domain.Node("x"), nil) })
		synctest.Wait()
	})
}

func TestStart_NilCallbackSuccessIsSilent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		logger := mocks.NewMockLogger(ctrl)
		// No logger calls expected.

		o := orchestrator.New(rules.NewBuilder().Build(), mapStamper(nil), orchestrator.WithLogger(logger))
		o.Start(t.Context(), domain.Node("leaf"), nil)
		synctest.Wait()
	})
}
