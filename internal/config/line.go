package config

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// LineConfig carries the operational knobs of the packaging line. It lives
// in line.yml next to the binary (or under /etc/boxline) and hot-reloads.
type LineConfig struct {
	// Timezone is the fixed operational time zone used for label dates and
	// scan timestamps, regardless of where the server runs.
	Timezone string `mapstructure:"timezone"`
	// EnforcePlanQuantity toggles the soft plan ceiling on production scans.
	EnforcePlanQuantity bool `mapstructure:"enforcePlanQuantity"`
	// LabelFontDir optionally points at a directory with a bold TTF used
	// for label text. Empty means the built-in PDF core font.
	LabelFontDir string `mapstructure:"labelFontDir"`
	// LabelFontFile is the TTF file name inside LabelFontDir.
	LabelFontFile string `mapstructure:"labelFontFile"`
}

func DefaultLineConfig() LineConfig {
	return LineConfig{
		Timezone:            "Asia/Yekaterinburg",
		EnforcePlanQuantity: true,
		LabelFontFile:       "DejaVuSans-Bold.ttf",
	}
}

type lineState struct {
	cfg LineConfig
	loc *time.Location
}

// LineHolder exposes the current LineConfig; swaps are atomic so request
// handlers always see a validated snapshot.
type LineHolder struct {
	current atomic.Value // holds lineState
}

func NewLineHolder() (*LineHolder, error) {
	v := viper.New()

	v.SetConfigName("line")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/boxline")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BOXLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultLineConfig()
	v.SetDefault("line.timezone", defaults.Timezone)
	v.SetDefault("line.enforcePlanQuantity", defaults.EnforcePlanQuantity)
	v.SetDefault("line.labelFontDir", defaults.LabelFontDir)
	v.SetDefault("line.labelFontFile", defaults.LabelFontFile)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg LineConfig
	if err := v.UnmarshalKey("line", &cfg); err != nil {
		return nil, err
	}
	state, err := validateLineConfig(cfg)
	if err != nil {
		return nil, err
	}

	holder := &LineHolder{}
	holder.current.Store(state)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated LineConfig
		if err := v.UnmarshalKey("line", &updated); err != nil {
			log.Printf("[line-config] reload failed: %v", err)
			return
		}
		state, err := validateLineConfig(updated)
		if err != nil {
			log.Printf("[line-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(state)
	})

	return holder, nil
}

// NewStaticLineHolder wraps a fixed config, mainly for tests.
func NewStaticLineHolder(cfg LineConfig) (*LineHolder, error) {
	state, err := validateLineConfig(cfg)
	if err != nil {
		return nil, err
	}
	holder := &LineHolder{}
	holder.current.Store(state)
	return holder, nil
}

func (h *LineHolder) Current() LineConfig {
	return h.current.Load().(lineState).cfg
}

// Location returns the operational time zone resolved at the last
// successful config swap.
func (h *LineHolder) Location() *time.Location {
	return h.current.Load().(lineState).loc
}

func validateLineConfig(cfg LineConfig) (lineState, error) {
	tz := strings.TrimSpace(cfg.Timezone)
	if tz == "" {
		tz = DefaultLineConfig().Timezone
		cfg.Timezone = tz
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return lineState{}, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	return lineState{cfg: cfg, loc: loc}, nil
}
