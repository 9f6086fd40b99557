package main

import (
	"fmt"

	"github.com/opencs408/workbook/internal/yamlutil"
)

// runConfig prints the effective configuration as YAML: defaults, then the
// config file, then the environment and flags.
func runConfig(args []string, env *Environment) error {
	c, _, rest, err := parseSimpleFlags("config", args, env.Stderr, printConfigUsage)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return usageError(fmt.Errorf("unexpected arguments: %v", rest))
	}

	cfg, err := loadConfig(c.config, env)
	if err != nil {
		return err
	}
	c.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	out, err := yamlutil.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	_, err = env.Stdout.Write(out)
	return err
}

