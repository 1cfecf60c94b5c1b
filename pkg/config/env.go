package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

const (
	// EnvPrefix prefixes every gitsup environment variable.
	EnvPrefix = "GITSUP_"

	// SubmoduleEnvPrefix prefixes the per-submodule overrides, which are
	// named GITSUP_SUBMODULE_<name>_<OWNER|BRANCH|PATH|REPOSITORY>.
	SubmoduleEnvPrefix = EnvPrefix + "SUBMODULE_"
)

// envConfig holds the top-level values read from the environment.
type envConfig struct {
	Token      string `env:"GITSUP_TOKEN"`
	Owner      string `env:"GITSUP_OWNER"`
	Repository string `env:"GITSUP_REPOSITORY"`
	Branch     string `env:"GITSUP_BRANCH"`

	AuthorName  string `env:"GITSUP_AUTHOR_NAME"`
	AuthorEmail string `env:"GITSUP_AUTHOR_EMAIL"`

	// Submodules is a comma separated list of submodule names.
	Submodules string `env:"GITSUP_SUBMODULES"`
}

// envSubmodule holds the overrides of a single submodule. The keys are
// relative to SubmoduleEnvPrefix + name + "_".
type envSubmodule struct {
	Owner      string `env:"OWNER"`
	Branch     string `env:"BRANCH"`
	Path       string `env:"PATH"`
	Repository string `env:"REPOSITORY"`
}

func loadEnv(ctx context.Context, l envconfig.Lookuper) (*envConfig, error) {
	var env envConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: l,
	}); err != nil {
		return nil, &Error{Field: "environment", Err: err}
	}
	return &env, nil
}

func loadEnvSubmodule(ctx context.Context, l envconfig.Lookuper, name string) (*envSubmodule, error) {
	var sub envSubmodule
	prefix := SubmoduleEnvPrefix + name + "_"
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &sub,
		Lookuper: envconfig.PrefixLookuper(prefix, l),
	}); err != nil {
		return nil, &Error{Field: "environment", Err: fmt.Errorf("submodule %q: %w", name, err)}
	}
	return &sub, nil
}
