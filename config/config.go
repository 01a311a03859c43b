// Package config loads the tracker configuration file.
package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"github.com/LdDl/sot-go/camera"
	"github.com/LdDl/sot-go/maskdump"
	"github.com/LdDl/sot-go/servo"
	"github.com/LdDl/sot-go/sot"
)

// Config is the whole process configuration. Every section starts from its
// defaults; a file only needs to name what it changes.
type Config struct {
	Tracking sot.Config      `json:"tracking"`
	Camera   camera.Config   `json:"camera"`
	Servos   servo.Config    `json:"servos"`
	Dump     maskdump.Config `json:"dump"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Tracking: sot.DefaultConfig(),
		Camera:   camera.DefaultConfig(),
		Servos:   servo.DefaultConfig(),
		Dump:     maskdump.DefaultConfig(),
	}
}

// Validate ensures all parts of the config are valid.
func (cfg Config) Validate() error {
	if err := cfg.Tracking.Validate("tracking"); err != nil {
		return err
	}
	if err := cfg.Camera.Validate("camera", cfg.Tracking.Width, cfg.Tracking.Height); err != nil {
		return err
	}
	if err := cfg.Servos.Validate("servos"); err != nil {
		return err
	}
	return cfg.Dump.Validate("dump")
}

// Load reads and validates the JSON configuration file at path
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "couldn't open config")
	}
	defer f.Close()
	cfg, err := Read(f)
	if err != nil {
		return Config{}, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Read decodes a JSON configuration over the defaults and validates it.
// Durations are written as strings such as "2s" or "500us". Unknown keys are
// rejected.
func Read(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, errors.Wrap(err, "couldn't read config")
	}
	var attributes map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&attributes); err != nil {
		return Config{}, errors.Wrap(err, "couldn't parse config")
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      &cfg,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return Config{}, errors.Wrap(err, "couldn't decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
