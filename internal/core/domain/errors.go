package domain

import "go.trai.ch/zerr"

var (
	// ErrMalformedRule is the parent of every registration-time validation error.
	ErrMalformedRule = zerr.New("malformed rule")

	// ErrMalformedTarget is returned when a target is nil or was not built through a constructor.
	ErrMalformedTarget = zerr.Wrap(ErrMalformedRule, "target must be a literal, a pattern, a glob or a composite of targets")

	// ErrMalformedRequirement is returned when a requirement is nil or has no dynamic function.
	ErrMalformedRequirement = zerr.Wrap(ErrMalformedRule, "requirement must be a node, a list of nodes or a function")

	// ErrMalformedBuildStep is returned when a build step is nil.
	ErrMalformedBuildStep = zerr.Wrap(ErrMalformedRule, "build step must be a function")

	// ErrInvalidPattern is returned when a pattern target does not compile.
	ErrInvalidPattern = zerr.New("invalid target pattern")

	// ErrInvalidGlob is returned when a glob target does not compile.
	ErrInvalidGlob = zerr.New("invalid target glob")

	// ErrInvalidCount is returned when a fan-in is created with a negative count.
	ErrInvalidCount = zerr.New("count must not be negative")

	// ErrNoBuildStep is returned when a stale node has no matching build step.
	ErrNoBuildStep = zerr.New("no build step found")

	// ErrDependencyResolution is returned when a dynamic requirement fails.
	ErrDependencyResolution = zerr.New("failed to resolve dependencies")

	// ErrDependencyCycle is returned when a node depends on itself.
	ErrDependencyCycle = zerr.New("dependency cycle")

	// ErrStampFailed is returned when the stamper fails for a node.
	ErrStampFailed = zerr.New("failed to stamp node")

	// ErrBuildStepFailed is returned when a build step reports a failure.
	ErrBuildStepFailed = zerr.New("build step failed")

	// ErrBuildFailed is returned when a build of one or more roots fails.
	ErrBuildFailed = zerr.New("build failed")

	// ErrNoTargetsSpecified is returned when no targets are specified for the build command.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrConfigNotFound is returned when no rules file can be found.
	ErrConfigNotFound = zerr.New("could not find a dependo rules file")

	// ErrConfigReadFailed is returned when the rules file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read rules file")

	// ErrConfigParseFailed is returned when the rules file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse rules file")

	// ErrUnsupportedConfigFormat is returned when the rules file extension is unknown.
	ErrUnsupportedConfigFormat = zerr.New("unsupported rules file format")

	// ErrInvalidRule is returned when a rule in the rules file is inconsistent.
	ErrInvalidRule = zerr.New("invalid rule definition")

	// ErrEnvFileReadFailed is returned when the env_file cannot be loaded.
	ErrEnvFileReadFailed = zerr.New("failed to read env file")

	// ErrCommandFailed is returned when a build command exits unsuccessfully.
	ErrCommandFailed = zerr.New("command failed")

	// ErrScanFailed is returned when a content scan for dependencies fails.
	ErrScanFailed = zerr.New("failed to scan file for dependencies")

	// ErrWatcherFailed is returned when the file watcher cannot be started.
	ErrWatcherFailed = zerr.New("failed to start file watcher")

	// ErrMetricsWriteFailed is returned when metrics cannot be written to disk.
	ErrMetricsWriteFailed = zerr.New("failed to write metrics file")
)
