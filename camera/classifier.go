package camera

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"github.com/LdDl/sot-go/sot"
)

// HSVConfig selects target pixels by colour. Hue is in degrees; when HueMin
// is greater than HueMax the range wraps through 0 (reds).
type HSVConfig struct {
	HueMin float64 `json:"hue_min"`
	HueMax float64 `json:"hue_max"`
	SatMin float64 `json:"sat_min"`
	ValMin float64 `json:"val_min"`
}

// DefaultHSVConfig matches a saturated red target
func DefaultHSVConfig() HSVConfig {
	return HSVConfig{
		HueMin: 340,
		HueMax: 20,
		SatMin: 0.5,
		ValMin: 0.3,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg HSVConfig) Validate(path string) error {
	if cfg.HueMin < 0 || cfg.HueMin >= 360 || cfg.HueMax < 0 || cfg.HueMax >= 360 {
		return errors.Errorf("%s: hue bounds must be in [0, 360)", path)
	}
	if cfg.SatMin < 0 || cfg.SatMin > 1 || cfg.ValMin < 0 || cfg.ValMin > 1 {
		return errors.Errorf("%s: sat_min and val_min must be in [0, 1]", path)
	}
	return nil
}

// HSVClassifier marks the pixels whose colour falls inside an HSV box
type HSVClassifier struct {
	cfg HSVConfig
}

// NewHSVClassifier creates a classifier for cfg
func NewHSVClassifier(cfg HSVConfig) *HSVClassifier {
	return &HSVClassifier{cfg: cfg}
}

// Matches reports whether h, s, v lie inside the configured box
func (c *HSVClassifier) Matches(h, s, v float64) bool {
	if s < c.cfg.SatMin || v < c.cfg.ValMin {
		return false
	}
	if c.cfg.HueMin <= c.cfg.HueMax {
		return h >= c.cfg.HueMin && h <= c.cfg.HueMax
	}
	return h >= c.cfg.HueMin || h <= c.cfg.HueMax
}

// Classify overwrites every bit of mask. Frames whose size differs from the
// mask are rejected with sot.ErrUnexpectedFrameSize and leave mask untouched.
func (c *HSVClassifier) Classify(img image.Image, mask *sot.Mask) error {
	frame := sot.NewRectFrom(img.Bounds())
	if frame.Width() != mask.Width() || frame.Height() != mask.Height() {
		return errors.Wrapf(sot.ErrUnexpectedFrameSize, "have %dx%d, want %dx%d", frame.Width(), frame.Height(), mask.Width(), mask.Height())
	}
	for y := frame.MinY; y <= frame.MaxY; y++ {
		for x := frame.MinX; x <= frame.MaxX; x++ {
			hit := false
			// fully transparent pixels are never targets
			if cc, ok := colorful.MakeColor(img.At(x, y)); ok {
				hit = c.Matches(cc.Hsv())
			}
			mask.Set(x-frame.MinX, y-frame.MinY, hit)
		}
	}
	return nil
}
