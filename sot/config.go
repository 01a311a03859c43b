package sot

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Defaults match a 160x120 sensor driving two 180 degree hobby servos.
const (
	DefaultWidth          = 160
	DefaultHeight         = 120
	DefaultMinPixels      = 3
	DefaultRoundness      = 10.0
	DefaultPositionWindow = 15
	DefaultSizeWindow     = 40
	DefaultDeadzone       = 5
	DefaultGain           = 0.1
	DefaultMinDeg         = 0
	DefaultMaxDeg         = 180
	DefaultStartDeg       = 90
	DefaultAcquireBudget  = 3
	DefaultHealthyBudget  = 5
	DefaultCaptureTimeout = 2 * time.Second
	DefaultPollInterval   = time.Millisecond
)

// SelectorConfig tunes target acquisition.
type SelectorConfig struct {
	// MinPixels is exclusive: a blob needs strictly more pixels to qualify.
	MinPixels int `json:"min_pixels"`
	// Roundness bounds both SumX/SumY and SumY/SumX.
	Roundness float64 `json:"roundness"`
}

// TrackerConfig tunes frame-to-frame re-identification.
type TrackerConfig struct {
	// PositionWindow is the half side of the open square around the last centroid.
	PositionWindow int `json:"position_window"`
	// SizeWindow is the open bound on |PixelCount - LastPixelCount|.
	SizeWindow int `json:"size_window"`
}

// ActuatorConfig tunes the proportional controller.
type ActuatorConfig struct {
	Deadzone int     `json:"deadzone"`
	GainH    float64 `json:"gain_h"`
	GainV    float64 `json:"gain_v"`
	InvertH  bool    `json:"invert_h"`
	InvertV  bool    `json:"invert_v"`
	MinDeg   int     `json:"min_deg"`
	MaxDeg   int     `json:"max_deg"`
	StartH   int     `json:"start_h"`
	StartV   int     `json:"start_v"`
}

// PersistenceConfig holds the retry budgets of the frame loop.
type PersistenceConfig struct {
	// Acquire is the budget granted when a target is first locked.
	Acquire int `json:"acquire"`
	// Healthy is the budget restored after every successfully tracked frame.
	Healthy int `json:"healthy"`
}

// Config is the full set of tuning parameters. It is passed explicitly into
// every stage of the pipeline.
type Config struct {
	Width          int               `json:"width"`
	Height         int               `json:"height"`
	Selector       SelectorConfig    `json:"selector"`
	Tracker        TrackerConfig     `json:"tracker"`
	Actuator       ActuatorConfig    `json:"actuator"`
	Persistence    PersistenceConfig `json:"persistence"`
	CaptureTimeout time.Duration     `json:"capture_timeout"`
	PollInterval   time.Duration     `json:"poll_interval"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Selector: SelectorConfig{
			MinPixels: DefaultMinPixels,
			Roundness: DefaultRoundness,
		},
		Tracker: TrackerConfig{
			PositionWindow: DefaultPositionWindow,
			SizeWindow:     DefaultSizeWindow,
		},
		Actuator: ActuatorConfig{
			Deadzone: DefaultDeadzone,
			GainH:    DefaultGain,
			GainV:    DefaultGain,
			MinDeg:   DefaultMinDeg,
			MaxDeg:   DefaultMaxDeg,
			StartH:   DefaultStartDeg,
			StartV:   DefaultStartDeg,
		},
		Persistence: PersistenceConfig{
			Acquire: DefaultAcquireBudget,
			Healthy: DefaultHealthyBudget,
		},
		CaptureTimeout: DefaultCaptureTimeout,
		PollInterval:   DefaultPollInterval,
	}
}

// Center returns the frame center pixel the controller steers toward
func (cfg Config) Center() Pixel {
	return Pixel{X: cfg.Width / 2, Y: cfg.Height / 2}
}

// Validate ensures all parts of the config are valid. path prefixes error messages.
func (cfg Config) Validate(path string) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errors.Errorf("%s: frame dimensions must be positive, have %dx%d", path, cfg.Width, cfg.Height)
	}
	if cfg.Selector.MinPixels < 0 {
		return errors.Errorf("%s.selector: min_pixels cannot be negative", path)
	}
	if cfg.Selector.Roundness <= 0 {
		return errors.Errorf("%s.selector: roundness must be positive", path)
	}
	if cfg.Tracker.PositionWindow <= 0 {
		return errors.Errorf("%s.tracker: position_window must be positive", path)
	}
	if cfg.Tracker.SizeWindow <= 0 {
		return errors.Errorf("%s.tracker: size_window must be positive", path)
	}
	a := cfg.Actuator
	if a.Deadzone < 0 {
		return errors.Errorf("%s.actuator: deadzone cannot be negative", path)
	}
	for _, g := range []struct {
		name string
		gain float64
	}{{"gain_h", a.GainH}, {"gain_v", a.GainV}} {
		// an error one unit past the deadzone must move the axis
		if math.Round(math.Abs(g.gain)*float64(a.Deadzone+1)) == 0 {
			return errors.Errorf("%s.actuator: %s %.3f cannot move an axis %d units off center", path, g.name, g.gain, a.Deadzone+1)
		}
	}
	if a.MinDeg < 0 || a.MaxDeg > 255 || a.MinDeg >= a.MaxDeg {
		return errors.Errorf("%s.actuator: invalid range [%d, %d]", path, a.MinDeg, a.MaxDeg)
	}
	if a.StartH < a.MinDeg || a.StartH > a.MaxDeg || a.StartV < a.MinDeg || a.StartV > a.MaxDeg {
		return errors.Errorf("%s.actuator: start positions should be between %d and %d", path, a.MinDeg, a.MaxDeg)
	}
	if cfg.Persistence.Acquire <= 0 || cfg.Persistence.Healthy <= 0 {
		return errors.Errorf("%s.persistence: budgets must be positive", path)
	}
	if cfg.CaptureTimeout <= 0 {
		return errors.Errorf("%s: capture_timeout must be positive", path)
	}
	if cfg.PollInterval <= 0 || cfg.PollInterval > cfg.CaptureTimeout {
		return errors.Errorf("%s: poll_interval must be positive and not exceed capture_timeout", path)
	}
	return nil
}
