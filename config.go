/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/beautycontest/games/guess"
)

type Config struct {
	bind           string
	defaultFactor  float64
	defaultRounds  int
	maxRounds      int
	playerTimeout  time.Duration
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxRounds < 1 {
		return fmt.Errorf("invalid max rounds (must be at least 1): %d", c.maxRounds)
	}
	if c.defaultRounds < 1 || c.defaultRounds > c.maxRounds {
		return fmt.Errorf("invalid default rounds (must be between 1-%d inclusive): %d", c.maxRounds, c.defaultRounds)
	}
	if math.IsNaN(c.defaultFactor) || math.Abs(c.defaultFactor) > guess.MaxFactor {
		return fmt.Errorf("invalid default factor (must be between %g and %g inclusive): %v", -guess.MaxFactor, guess.MaxFactor, c.defaultFactor)
	}
	if c.playerTimeout < time.Second {
		return fmt.Errorf("invalid player timeout (must be at least 1s): %s", c.playerTimeout)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("BEAUTYCONTEST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "beautycontest",
		Short:         "A multiplayer guess-the-average party game, packed in a single webapp.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: BEAUTYCONTEST_BIND)")
	fs.Float64Var(&cfg.defaultFactor, "default-factor", 0.5, "factor used when a host does not pick one (env: BEAUTYCONTEST_DEFAULT_FACTOR)")
	fs.IntVar(&cfg.defaultRounds, "default-rounds", 10, "rounds played when a host does not pick a number (env: BEAUTYCONTEST_DEFAULT_ROUNDS)")
	fs.IntVar(&cfg.maxRounds, "max-rounds", 100, "maximum rounds a host may pick (env: BEAUTYCONTEST_MAX_ROUNDS)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", time.Minute, "time before a silent connection is dropped (env: BEAUTYCONTEST_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: BEAUTYCONTEST_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: BEAUTYCONTEST_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: BEAUTYCONTEST_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle rooms are closed (env: BEAUTYCONTEST_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: BEAUTYCONTEST_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: BEAUTYCONTEST_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: BEAUTYCONTEST_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: BEAUTYCONTEST_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("beautycontest v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
