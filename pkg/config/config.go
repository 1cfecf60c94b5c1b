// Package config resolves the gitsup configuration.
// It merges values from the command line, the environment and an optional
// YAML/JSON config file with the precedence: CLI > environment > file > defaults.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// DefaultBranch is used for the parent repository and every submodule that
// doesn't configure a branch.
const DefaultBranch = "master"

// Config is the fully resolved configuration of one gitsup run.
type Config struct {
	// Token is the GitHub personal access token. It is never logged.
	Token string

	// Owner, Repository and Branch identify the parent repository.
	Owner      string
	Repository string
	Branch     string

	// AuthorName and AuthorEmail optionally set the author of the update
	// commit. Both are required for either to take effect.
	AuthorName  string
	AuthorEmail string

	// Submodules in configuration order.
	Submodules []Submodule
}

// Submodule is the resolved configuration of a single tracked submodule.
type Submodule struct {
	// Name is the key the submodule was configured under.
	Name string

	// Owner and Repository identify the submodule's remote repository.
	Owner      string
	Repository string

	// Branch is the tracked branch whose head the parent should point at.
	Branch string

	// Path is the mount path of the submodule inside the parent repository.
	Path string
}

// Spec returns the parent repository as "owner/repository:branch".
func (c *Config) Spec() string {
	return RepoRef{Owner: c.Owner, Repo: c.Repository, Branch: c.Branch}.String()
}

// String describes the configuration without the token.
func (c *Config) String() string {
	parts := make([]string, 0, len(c.Submodules))
	for _, s := range c.Submodules {
		parts = append(parts, "("+s.String()+")")
	}
	return fmt.Sprintf("parent (%s), submodules %s", c.Spec(), strings.Join(parts, ", "))
}

// LogValue implements slog.LogValuer so the token never ends up in logs.
func (c *Config) LogValue() slog.Value {
	names := make([]string, 0, len(c.Submodules))
	for _, s := range c.Submodules {
		names = append(names, s.Name)
	}
	return slog.GroupValue(
		slog.String("parent", c.Spec()),
		slog.Any("submodules", names),
	)
}

// Spec returns the submodule remote as "owner/repository:branch".
func (s Submodule) Spec() string {
	return RepoRef{Owner: s.Owner, Repo: s.Repository, Branch: s.Branch}.String()
}

// String returns a human readable description of the submodule.
func (s Submodule) String() string {
	return fmt.Sprintf("%s: %s, path: %s", s.Name, s.Spec(), s.Path)
}

// Options are the inputs of Resolve.
type Options struct {
	// Token overrides every other token source when set.
	Token string

	// Parent optionally overrides the parent repository ("owner/repo[:branch]").
	Parent string

	// ConfigFile is the optional path to a YAML or JSON config file.
	ConfigFile string

	// Lookuper reads environment variables. Defaults to the process environment.
	Lookuper envconfig.Lookuper
}

// Resolve merges all configuration sources into one validated Config.
// All failures are returned as *Error.
func Resolve(ctx context.Context, opts Options) (*Config, error) {
	lookuper := opts.Lookuper
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	env, err := loadEnv(ctx, lookuper)
	if err != nil {
		return nil, err
	}

	file := &File{}
	if opts.ConfigFile != "" {
		if file, err = LoadFile(opts.ConfigFile); err != nil {
			return nil, err
		}
	}

	var parent RepoRef
	if opts.Parent != "" {
		ref, err := ParseRepoRef(opts.Parent)
		if err != nil {
			return nil, &Error{Field: "parent", Err: err}
		}
		parent = *ref
	}

	cfg := &Config{
		Token:      firstNonEmpty(opts.Token, env.Token, file.Token),
		Owner:      firstNonEmpty(parent.Owner, env.Owner, file.Owner),
		Repository: firstNonEmpty(parent.Repo, env.Repository, file.Repository),
		Branch:     firstNonEmpty(parent.Branch, env.Branch, file.Branch, DefaultBranch),

		AuthorName:  firstNonEmpty(env.AuthorName, file.AuthorName),
		AuthorEmail: firstNonEmpty(env.AuthorEmail, file.AuthorEmail),
	}

	// The environment's submodule list replaces the file's list entirely.
	names := parseList(env.Submodules)
	fromFile := make(map[string]FileSubmodule, len(file.Submodules))
	for _, s := range file.Submodules {
		fromFile[s.Name] = s
	}
	if len(names) == 0 {
		for _, s := range file.Submodules {
			names = append(names, s.Name)
		}
	}

	for _, name := range names {
		override, err := loadEnvSubmodule(ctx, lookuper, name)
		if err != nil {
			return nil, err
		}
		entry := fromFile[name]

		repository := firstNonEmpty(override.Repository, entry.Repository, name)
		cfg.Submodules = append(cfg.Submodules, Submodule{
			Name:       name,
			Owner:      firstNonEmpty(override.Owner, entry.Owner, cfg.Owner),
			Repository: repository,
			Branch:     firstNonEmpty(override.Branch, entry.Branch, DefaultBranch),
			Path:       firstNonEmpty(override.Path, entry.Path, repository),
		})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants of a resolved configuration.
func (c *Config) Validate() error {
	switch {
	case c.Token == "":
		return &Error{Field: "token", Err: fmt.Errorf("no GitHub personal access token provided")}
	case c.Owner == "":
		return &Error{Field: "owner", Err: fmt.Errorf("parent repository owner is required")}
	case c.Repository == "":
		return &Error{Field: "repository", Err: fmt.Errorf("parent repository name is required")}
	case len(c.Submodules) == 0:
		return &Error{Field: "submodules", Err: fmt.Errorf("no submodules configured")}
	case (c.AuthorName == "") != (c.AuthorEmail == ""):
		return &Error{Field: "author", Err: fmt.Errorf("author_name and author_email must be set together")}
	}

	names := make(map[string]bool, len(c.Submodules))
	paths := make(map[string]string, len(c.Submodules))
	for _, s := range c.Submodules {
		if names[s.Name] {
			return &Error{Field: "submodules." + s.Name, Err: fmt.Errorf("submodule configured more than once")}
		}
		names[s.Name] = true

		if s.Repository == "" {
			return &Error{Field: "submodules." + s.Name + ".repository", Err: fmt.Errorf("repository is required")}
		}
		if other, ok := paths[s.Path]; ok {
			return &Error{Field: "submodules." + s.Name + ".path", Err: fmt.Errorf("path %q is already used by submodule %q", s.Path, other)}
		}
		paths[s.Path] = s.Name
	}
	return nil
}

// Error is returned for any configuration problem. It names the offending field.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration (%s): %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseList splits a comma separated list, trimming whitespace and dropping
// empty items.
func parseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
