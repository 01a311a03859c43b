package servo

import (
	"io"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/LdDl/sot-go/sot"
)

// Driver kinds
const (
	DriverFake = "fake"
	DriverPWM  = "pwm"
)

// Config selects the driver of both axes.
type Config struct {
	Driver string    `json:"driver"`
	Pan    PWMConfig `json:"pan"`
	Tilt   PWMConfig `json:"tilt"`
}

// DefaultConfig uses fake servos; pin names are the Raspberry Pi hardware PWM pins.
func DefaultConfig() Config {
	return Config{
		Driver: DriverFake,
		Pan:    DefaultPWMConfig("GPIO18"),
		Tilt:   DefaultPWMConfig("GPIO13"),
	}
}

// Validate ensures all parts of the config are valid.
func (cfg Config) Validate(path string) error {
	switch cfg.Driver {
	case DriverFake:
		return nil
	case DriverPWM:
		if err := cfg.Pan.Validate(path + ".pan"); err != nil {
			return err
		}
		return cfg.Tilt.Validate(path + ".tilt")
	default:
		return errors.Errorf("%s: unknown driver %q", path, cfg.Driver)
	}
}

// Axis is a servo the loop can command and the process can release.
type Axis interface {
	sot.Axis
	io.Closer
}

// New builds the pan and tilt servos, in that order
func New(cfg Config, logger golog.Logger) (Axis, Axis, error) {
	switch cfg.Driver {
	case DriverFake:
		return NewFake("pan", logger), NewFake("tilt", logger), nil
	case DriverPWM:
		panPWM, err := NewPWM(cfg.Pan, logger)
		if err != nil {
			return nil, nil, errors.Wrap(err, "pan")
		}
		tiltPWM, err := NewPWM(cfg.Tilt, logger)
		if err != nil {
			return nil, nil, multierr.Combine(errors.Wrap(err, "tilt"), panPWM.Close())
		}
		return panPWM, tiltPWM, nil
	default:
		return nil, nil, errors.Errorf("unknown driver %q", cfg.Driver)
	}
}
