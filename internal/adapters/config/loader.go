// Package config loads dependo rules files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/dependo/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const supportedVersion = "1"

const (
	anyPatternPrefix = "re:"
	anyGlobPrefix    = "glob:"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader for YAML, HCL and TOML rules files.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
}

// NewLoader creates a new Loader reading from the host filesystem.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

// Load reads the rules file at path. A relative path is resolved against
// cwd; an empty path triggers discovery from cwd.
func (l *Loader) Load(cwd, path string) (*domain.Rulebook, error) {
	if path == "" {
		discovered, err := l.DiscoverConfigPath(cwd)
		if err != nil {
			return nil, err
		}
		path = discovered
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	path = filepath.Clean(path)

	var file Rulefile
	if err := l.decode(path, &file); err != nil {
		return nil, err
	}

	return l.compile(path, &file)
}

// DiscoverConfigPath walks up from cwd and returns the first rules file found.
func (l *Loader) DiscoverConfigPath(cwd string) (string, error) {
	currentDir := cwd
	for {
		for _, name := range domain.RulesFileNames {
			candidate := filepath.Join(currentDir, name)
			if info, err := l.FS.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no rules file in any parent directory"), "cwd", cwd)
}

func (l *Loader) decode(path string, target *Rulefile) error {
	data, err := l.FS.ReadFile(path)
	if err != nil {
		return errors.Join(domain.ErrConfigReadFailed, zerr.With(zerr.Wrap(err, "cannot read rules file"), "path", path))
	}

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, target)
	case ".toml":
		err = toml.Unmarshal(data, target)
	case ".hcl":
		err = decodeHCL(path, data, target)
	default:
		return zerr.With(zerr.Wrap(domain.ErrUnsupportedConfigFormat, "unknown extension "+ext), "path", path)
	}
	if err != nil {
		return errors.Join(domain.ErrConfigParseFailed, zerr.With(zerr.Wrap(err, "cannot parse rules file"), "path", path))
	}

	return nil
}

func decodeHCL(path string, data []byte, target *Rulefile) error {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return diags
	}

	if diags := gohcl.DecodeBody(hclFile.Body, nil, target); diags.HasErrors() {
		return diags
	}
	return nil
}

func (l *Loader) compile(path string, file *Rulefile) (*domain.Rulebook, error) {
	if file.Version != "" && file.Version != supportedVersion {
		err := zerr.Wrap(domain.ErrConfigParseFailed, "unsupported version")
		return nil, zerr.With(zerr.With(err, "version", file.Version), "path", path)
	}

	root := filepath.Dir(path)
	book := &domain.Rulebook{
		Path:             path,
		Root:             root,
		PhonyAlwaysStale: file.PhonyAlwaysStale,
		Environment:      make(map[string]string),
	}

	if file.EnvFile != "" {
		env, err := l.readEnvFile(resolvePath(root, file.EnvFile))
		if err != nil {
			return nil, err
		}
		for k, v := range env {
			book.Environment[k] = v
		}
	}
	for k, v := range file.Environment {
		book.Environment[k] = v
	}

	for _, expr := range file.Phony {
		target, err := parseTargetExpr(expr)
		if err != nil {
			return nil, zerr.With(err, "phony", expr)
		}
		book.Phony = append(book.Phony, target)
	}

	for i, dto := range file.Rules {
		spec, err := compileRule(i, dto)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "rule", i), "path", path)
		}
		book.Rules = append(book.Rules, spec)
	}

	l.warnInertPhony(book)

	return book, nil
}

func (l *Loader) readEnvFile(path string) (map[string]string, error) {
	data, err := l.FS.ReadFile(path)
	if err != nil {
		return nil, errors.Join(domain.ErrEnvFileReadFailed, zerr.With(zerr.Wrap(err, "cannot read env file"), "path", path))
	}

	env, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Join(domain.ErrEnvFileReadFailed, zerr.With(zerr.Wrap(err, "cannot parse env file"), "path", path))
	}
	return env, nil
}

// warnInertPhony reports literal phony targets that can never run: they have
// a build step but no dependencies, so nothing can make them stale.
func (l *Loader) warnInertPhony(book *domain.Rulebook) {
	if book.PhonyAlwaysStale || l.Logger == nil {
		return
	}

	for _, phony := range book.Phony {
		lit, ok := phony.(domain.LiteralTarget)
		if !ok {
			continue
		}

		var hasStep, hasDeps bool
		for i := range book.Rules {
			rule := &book.Rules[i]
			if _, matched := domain.Match(rule.Target, lit.Name); !matched {
				continue
			}
			hasStep = hasStep || rule.HasBuildStep()
			hasDeps = hasDeps || rule.HasDependencies()
		}

		if hasStep && !hasDeps {
			l.Logger.Warn(fmt.Sprintf(
				"phony target %q has a build step but no dependencies; it only runs with phony_always_stale: true",
				lit.Name))
		}
	}
}

func compileRule(index int, dto *RuleDTO) (domain.RuleSpec, error) {
	if dto == nil {
		return domain.RuleSpec{}, zerr.Wrap(domain.ErrInvalidRule, "empty rule")
	}

	target, err := compileTarget(dto)
	if err != nil {
		return domain.RuleSpec{}, err
	}

	spec := domain.RuleSpec{
		Index:    index,
		Target:   target,
		Requires: dto.Requires,
		Run:      dto.Run,
	}

	if dto.Scan != nil {
		scan, err := compileScan(dto.Scan)
		if err != nil {
			return domain.RuleSpec{}, err
		}
		spec.Scan = scan
	}

	if !spec.HasDependencies() && !spec.HasBuildStep() {
		return domain.RuleSpec{}, zerr.Wrap(domain.ErrInvalidRule, "rule needs requires, scan or run")
	}

	return spec, nil
}

func compileTarget(dto *RuleDTO) (domain.Target, error) {
	selectors := 0
	for _, set := range []bool{dto.Target != "", dto.Pattern != "", dto.Glob != "", len(dto.Any) > 0} {
		if set {
			selectors++
		}
	}
	if selectors != 1 {
		return nil, zerr.Wrap(domain.ErrInvalidRule, "rule needs exactly one of target, pattern, glob or any")
	}

	switch {
	case dto.Target != "":
		return domain.Literal(domain.Node(dto.Target)), nil
	case dto.Pattern != "":
		return compilePattern(dto.Pattern)
	case dto.Glob != "":
		return compileGlob(dto.Glob)
	default:
		members := make([]domain.Target, 0, len(dto.Any))
		for _, expr := range dto.Any {
			member, err := parseTargetExpr(expr)
			if err != nil {
				return nil, err
			}
			members = append(members, member)
		}
		return domain.AnyOf(members...), nil
	}
}

// parseTargetExpr parses the short target form used by any and phony:
// "re:<regexp>", "glob:<glob>" or a literal node name.
func parseTargetExpr(expr string) (domain.Target, error) {
	switch {
	case strings.HasPrefix(expr, anyPatternPrefix):
		return compilePattern(strings.TrimPrefix(expr, anyPatternPrefix))
	case strings.HasPrefix(expr, anyGlobPrefix):
		return compileGlob(strings.TrimPrefix(expr, anyGlobPrefix))
	case expr == "":
		return nil, zerr.Wrap(domain.ErrInvalidRule, "empty target")
	default:
		return domain.Literal(domain.Node(expr)), nil
	}
}

func compilePattern(expr string) (domain.Target, error) {
	t, err := domain.Pattern(expr)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func compileGlob(expr string) (domain.Target, error) {
	t, err := domain.Glob(expr)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func compileScan(dto *ScanDTO) (*domain.ScanSpec, error) {
	if dto.File == "" || dto.Regex == "" {
		return nil, zerr.Wrap(domain.ErrInvalidRule, "scan needs file and regex")
	}

	re, err := regexp.Compile(dto.Regex)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidRule, "scan regex: "+err.Error()), "regex", dto.Regex)
	}
	if re.NumSubexp() < 1 {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidRule, "scan regex needs a capture group"), "regex", dto.Regex)
	}

	return &domain.ScanSpec{File: dto.File, Regex: re, Prefix: dto.Prefix}, nil
}

func resolvePath(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(base, path))
}
