package orchestrator

import (
	"context"
	"io"
)

type outputKey struct{}

// Output returns the writer a running build step should send its output to.
// Outside a build step it returns io.Discard.
func Output(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok {
		return w
	}
	return io.Discard
}

func withOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}
