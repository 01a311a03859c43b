// Package servo implements the actuator drivers the frame loop commands.
package servo

import (
	"context"
	"math"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"

	"github.com/LdDl/sot-go/sot"
)

const (
	defaultFrequencyHz uint = 50
	minWidthUs         uint = 500  // absolute minimum pwm width
	maxWidthUs         uint = 2500 // absolute maximum pwm width
)

// PWMConfig describes a hobby servo wired to a PWM capable GPIO pin.
type PWMConfig struct {
	// Pin is the periph.io name of the pin, e.g. "GPIO18".
	Pin         string `json:"pin"`
	FrequencyHz uint   `json:"frequency_hz"`
	MinWidthUs  uint   `json:"min_width_us"`
	MaxWidthUs  uint   `json:"max_width_us"`
	// MinDeg and MaxDeg are the angles reached at MinWidthUs and MaxWidthUs.
	MinDeg float64 `json:"min_angle_deg"`
	MaxDeg float64 `json:"max_angle_deg"`
}

// DefaultPWMConfig returns the usual 50Hz, 500-2500us, 0-180 degree servo on pin
func DefaultPWMConfig(pin string) PWMConfig {
	return PWMConfig{
		Pin:         pin,
		FrequencyHz: defaultFrequencyHz,
		MinWidthUs:  minWidthUs,
		MaxWidthUs:  maxWidthUs,
		MinDeg:      0,
		MaxDeg:      180,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg PWMConfig) Validate(path string) error {
	if cfg.Pin == "" {
		return errors.Errorf("%s: pin is required", path)
	}
	if cfg.FrequencyHz == 0 {
		return errors.Errorf("%s: frequency_hz must be positive", path)
	}
	if cfg.MinWidthUs < minWidthUs {
		return errors.Errorf("%s: min_width_us cannot be lower than %d", path, minWidthUs)
	}
	if cfg.MaxWidthUs > maxWidthUs {
		return errors.Errorf("%s: max_width_us cannot be higher than %d", path, maxWidthUs)
	}
	if cfg.MinWidthUs >= cfg.MaxWidthUs {
		return errors.Errorf("%s: min_width_us must be lower than max_width_us", path)
	}
	if cfg.MinDeg < 0 || cfg.MinDeg >= cfg.MaxDeg {
		return errors.Errorf("%s: invalid angle range [%.1f, %.1f]", path, cfg.MinDeg, cfg.MaxDeg)
	}
	return nil
}

// pwmPin is the part of gpio.PinIO the driver needs
type pwmPin interface {
	String() string
	PWM(duty gpio.Duty, f physic.Frequency) error
	Halt() error
}

// PWM drives one hobby servo through a periph.io GPIO pin
type PWM struct {
	mu      sync.Mutex
	pin     pwmPin
	cfg     PWMConfig
	logger  golog.Logger
	current uint8
}

var _ sot.Axis = (*PWM)(nil)

// NewPWM looks the pin up in the periph.io registry. host.Init must have
// been called before.
func NewPWM(cfg PWMConfig, logger golog.Logger) (*PWM, error) {
	if err := cfg.Validate("servo"); err != nil {
		return nil, err
	}
	pin := lookupPin(cfg.Pin)
	if pin == nil {
		return nil, errors.Errorf("couldn't find pin %q", cfg.Pin)
	}
	return newPWM(pin, cfg, logger), nil
}

// lookupPin finds a pin in the periph.io registry, nil when there is none.
// It's a variable in case you need to override it during tests.
var lookupPin = func(name string) pwmPin {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil
	}
	return pin
}

func newPWM(pin pwmPin, cfg PWMConfig, logger golog.Logger) *PWM {
	return &PWM{pin: pin, cfg: cfg, logger: logger}
}

// Move sets the servo angle. Angles outside the configured range are clamped.
func (s *PWM) Move(ctx context.Context, angleDeg uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	angle := math.Max(s.cfg.MinDeg, math.Min(s.cfg.MaxDeg, float64(angleDeg)))
	pct := mapDegToDutyCyclePct(s.cfg.MinWidthUs, s.cfg.MaxWidthUs, s.cfg.MinDeg, s.cfg.MaxDeg, angle, s.cfg.FrequencyHz)
	duty := gpio.Duty(pct * float64(gpio.DutyMax))
	if err := s.pin.PWM(duty, physic.Frequency(s.cfg.FrequencyHz)*physic.Hertz); err != nil {
		return errors.Wrapf(err, "couldn't move the servo on %s", s.pin)
	}
	s.current = uint8(angle)
	s.logger.Debugw("servo moved", "pin", s.pin.String(), "angle", angle, "duty", duty)
	return nil
}

// Position returns the last commanded angle
func (s *PWM) Position() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Close stops the PWM output
func (s *PWM) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Wrapf(s.pin.Halt(), "couldn't halt %s", s.pin)
}

// mapDegToDutyCyclePct maps an angle linearly onto a pulse width between minUs
// and maxUs and returns it as a fraction of the period.
func mapDegToDutyCyclePct(minUs, maxUs uint, minDeg, maxDeg, deg float64, frequency uint) float64 {
	period := 1.0 / float64(frequency)
	degRange := maxDeg - minDeg
	uSRange := float64(maxUs - minUs)

	scale := uSRange / degRange

	pwmWidthUs := float64(minUs) + (deg-minDeg)*scale
	return (pwmWidthUs / (1000 * 1000)) / period
}
