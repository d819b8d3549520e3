package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/fingerpick/games/picker"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	countdown      time.Duration
	frameRate      int
	hiddenDelay    time.Duration
	idleDelay      time.Duration
	metrics        bool
	paletteSpec    []string
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	palette []picker.Color
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.frameRate < 1 || c.frameRate > 240 {
		return fmt.Errorf("invalid frame rate (must be between 1-240 inclusive): %d", c.frameRate)
	}
	if c.countdown < 500*time.Millisecond {
		return fmt.Errorf("countdown too short (minimum 500ms): %s", c.countdown)
	}

	c.palette = picker.DefaultPalette()
	if len(c.paletteSpec) > 0 {
		palette, err := picker.ParsePalette(c.paletteSpec)
		if err != nil {
			return fmt.Errorf("invalid --palette: %w", err)
		}
		c.palette = palette
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) frameInterval() time.Duration {
	return time.Second / time.Duration(c.frameRate)
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("FINGERPICK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "fingerpick",
		Short:         "Everyone puts a finger on the screen; one of them gets picked.",
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

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: FINGERPICK_BIND)")
	fs.DurationVar(&cfg.countdown, "countdown", 3*time.Second, "length of the selection countdown (env: FINGERPICK_COUNTDOWN)")
	fs.IntVar(&cfg.frameRate, "frame-rate", 60, "animation frames sent per second (env: FINGERPICK_FRAME_RATE)")
	fs.DurationVar(&cfg.hiddenDelay, "hidden-delay", 5*time.Second, "time in background before returning to the welcome screen (env: FINGERPICK_HIDDEN_DELAY)")
	fs.DurationVar(&cfg.idleDelay, "idle-delay", 5*time.Second, "time without touches before instructions reappear (env: FINGERPICK_IDLE_DELAY)")
	fs.BoolVar(&cfg.metrics, "metrics", false, "expose prometheus metrics at /metrics (env: FINGERPICK_METRICS)")
	fs.StringSliceVar(&cfg.paletteSpec, "palette", nil, "comma-separated Name=#hex colors handed out to fingers (env: FINGERPICK_PALETTE)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: FINGERPICK_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: FINGERPICK_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: FINGERPICK_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: FINGERPICK_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: FINGERPICK_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: FINGERPICK_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: FINGERPICK_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: FINGERPICK_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("fingerpick v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
