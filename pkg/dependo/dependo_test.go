package dependo_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/dependo/internal/core/ports/mocks"
	"go.trai.ch/dependo/pkg/dependo"
	"go.uber.org/mock/gomock"
)

func fixedStamps(stamps map[dependo.Node]int64) dependo.Stamper[int64] {
	return func(_ context.Context, n dependo.Node) (int64, error) {
		return stamps[n], nil
	}
}

func TestEngine_RegistrationErrors(t *testing.T) {
	e := dependo.New()

	assert.ErrorIs(t, e.AddDependency(nil, dependo.Requires("a")), dependo.ErrMalformedTarget)
	assert.ErrorIs(t, e.AddDependency(dependo.Literal("a"), nil), dependo.ErrMalformedRequirement)
	assert.ErrorIs(t, e.AddBuildStep(dependo.Literal("a"), nil), dependo.ErrMalformedBuildStep)
	assert.ErrorIs(t, e.AddPhonyTarget(nil), dependo.ErrMalformedRule)
}

func TestEngine_GetDependencies(t *testing.T) {
	e := dependo.New()

	deps, err := e.GetDependencies(t.Context(), "anything")
	require.NoError(t, err)
	assert.Empty(t, deps)

	require.NoError(t, e.AddDependency(dependo.Literal("output"), dependo.RequiresAll("a.o", "b.o")))

	deps, err = e.GetDependencies(t.Context(), "output")
	require.NoError(t, err)
	assert.Equal(t, []dependo.Node{"a.o", "b.o"}, deps)
}

func TestEngine_CompositeTargetPriority(t *testing.T) {
	e := dependo.New()
	require.NoError(t, e.AddDependency(
		dependo.AnyOf(dependo.MustPattern(`^lib(.*)\.a$`), dependo.MustPattern(`^(.*)\.a$`)),
		dependo.RequiresFunc(func(_ context.Context, c dependo.Captures) (dependo.MultiNode, error) {
			return dependo.Node(c.Get(1) + ".o"), nil
		}),
	))

	deps, err := e.GetDependencies(t.Context(), "libz.a")
	require.NoError(t, err)
	assert.Equal(t, []dependo.Node{"z.o"}, deps)
}

func TestEngine_PatternOfCompiledRegexp(t *testing.T) {
	e := dependo.New()
	require.NoError(t, e.AddDependency(
		dependo.PatternOf(regexp.MustCompile(`^(.*)\.o$`)),
		dependo.RequiresFunc(func(_ context.Context, c dependo.Captures) (dependo.MultiNode, error) {
			return dependo.Node(c.Get(1) + ".c"), nil
		}),
	))

	deps, err := e.GetDependencies(t.Context(), "main.o")
	require.NoError(t, err)
	assert.Equal(t, []dependo.Node{"main.c"}, deps)
}

func TestBuild_StringStamps(t *testing.T) {
	e := dependo.New()
	built := false
	require.NoError(t, e.AddDependency(dependo.Literal("report"), dependo.Requires("data")))
	require.NoError(t, e.AddBuildStep(dependo.Literal("report"), func(context.Context, dependo.Captures) error {
		built = true
		return nil
	}))

	stamps := map[dependo.Node]string{"report": "2024-01-01", "data": "2024-02-01"}
	err := dependo.Build[string](t.Context(), e, dependo.Node("report"), func(_ context.Context, n dependo.Node) (string, error) {
		return stamps[n], nil
	})

	require.NoError(t, err)
	assert.True(t, built)
}

func TestBuild_UsesRulesAtStart(t *testing.T) {
	e := dependo.New()
	require.NoError(t, e.AddDependency(dependo.Literal("out"), dependo.Requires("in")))
	require.NoError(t, e.AddBuildStep(dependo.Literal("out"), func(context.Context, dependo.Captures) error {
		// Registering while a build is running does not affect it.
		return e.AddDependency(dependo.Literal("in"), dependo.Requires("missing"))
	}))

	err := dependo.Build(t.Context(), e, dependo.Node("out"), fixedStamps(map[dependo.Node]int64{"in": 1}))
	require.NoError(t, err)

	deps, err := e.GetDependencies(t.Context(), "in")
	require.NoError(t, err)
	assert.Equal(t, []dependo.Node{"missing"}, deps)
}

func TestStart_NilCallbackLogsThroughEngineLogger(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		logger := mocks.NewMockLogger(ctrl)
		logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
			assert.ErrorIs(t, err, dependo.ErrNoBuildStep)
		})

		e := dependo.New()
		e.SetLogger(logger)
		require.NoError(t, e.AddDependency(dependo.Literal("all"), dependo.Requires("output")))

		dependo.Start(t.Context(), e, dependo.Node("all"), fixedStamps(map[dependo.Node]int64{"output": 1}), nil)
		synctest.Wait()
	})
}

func TestStart_Callback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		boom := errors.New("boom")
		e := dependo.New()
		require.NoError(t, e.AddDependency(dependo.Literal("x"), dependo.RequiresFunc(
			func(context.Context, dependo.Captures) (dependo.MultiNode, error) { return nil, boom },
		)))

		var got error
		dependo.Start(t.Context(), e, dependo.Node("x"), fixedStamps(nil), func(err error) {
			got = err
		}, dependo.WithJobs(2))
		synctest.Wait()

		assert.ErrorIs(t, got, boom)
		assert.ErrorIs(t, got, dependo.ErrDependencyResolution)
	})
}
