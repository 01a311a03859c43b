package camera

import (
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/LdDl/sot-go/sot"
)

// Source kinds
const (
	SourceSynthetic = "synthetic"
	SourceReplay    = "replay"
)

// Config selects and tunes the frame source and the classifier.
type Config struct {
	Source string       `json:"source"`
	Replay ReplayConfig `json:"replay"`
	Scene  SceneConfig  `json:"scene"`
	HSV    HSVConfig    `json:"hsv"`
}

// ReplayConfig points at a directory of recorded frames.
type ReplayConfig struct {
	Dir  string `json:"dir"`
	Loop bool   `json:"loop"`
}

// DefaultConfig returns a synthetic scene classified for a red target
func DefaultConfig() Config {
	return Config{
		Source: SourceSynthetic,
		Scene:  DefaultSceneConfig(),
		HSV:    DefaultHSVConfig(),
	}
}

// Validate ensures all parts of the config are valid.
func (cfg Config) Validate(path string, width, height int) error {
	switch cfg.Source {
	case SourceSynthetic:
		if err := cfg.Scene.Validate(path+".scene", width, height); err != nil {
			return err
		}
	case SourceReplay:
		if cfg.Replay.Dir == "" {
			return errors.Errorf("%s.replay: dir is required", path)
		}
	default:
		return errors.Errorf("%s: unknown source %q", path, cfg.Source)
	}
	return cfg.HSV.Validate(path + ".hsv")
}

// NewSource builds the configured frame source
func NewSource(cfg Config, width, height int, clk clock.Clock, poll time.Duration) (sot.FrameSource, error) {
	switch cfg.Source {
	case SourceSynthetic:
		return NewSynthetic(width, height, cfg.Scene, clk, poll), nil
	case SourceReplay:
		return NewReplay(os.DirFS(cfg.Replay.Dir), cfg.Replay.Loop)
	default:
		return nil, errors.Errorf("unknown source %q", cfg.Source)
	}
}
