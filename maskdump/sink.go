package maskdump

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/LdDl/sot-go/sot"
)

// Dump formats
const (
	FormatRows   = "rows"
	FormatFramed = "framed"
)

// Config enables the debug dump of classified masks.
type Config struct {
	Enabled bool   `json:"enabled"`
	Format  string `json:"format"`
	// Port is a serial device; when empty the dump goes to Path.
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate"`
	// Path is a file to write to, "-" for standard output.
	Path string `json:"path"`
}

// DefaultConfig returns a disabled dump that would use the row format at 921600 baud
func DefaultConfig() Config {
	return Config{
		Format:   FormatRows,
		BaudRate: 921600,
		Path:     "-",
	}
}

// Validate ensures all parts of the config are valid.
func (cfg Config) Validate(path string) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Format != FormatRows && cfg.Format != FormatFramed {
		return errors.Errorf("%s: unknown format %q", path, cfg.Format)
	}
	if cfg.Port == "" && cfg.Path == "" {
		return errors.Errorf("%s: either port or path is required", path)
	}
	if cfg.Port != "" && cfg.BaudRate <= 0 {
		return errors.Errorf("%s: baud_rate must be positive", path)
	}
	return nil
}

// Sink writes every mask it receives to a link in one of the dump formats
type Sink struct {
	format string
	bw     *bufio.Writer
	closer io.Closer
}

var _ sot.MaskSink = (*Sink)(nil)

// NewSink wraps w. Closing the sink flushes and closes w.
func NewSink(w io.WriteCloser, format string) (*Sink, error) {
	if format != FormatRows && format != FormatFramed {
		return nil, errors.Errorf("unknown format %q", format)
	}
	return &Sink{format: format, bw: bufio.NewWriter(w), closer: w}, nil
}

// Open creates the sink described by cfg
func Open(cfg Config) (*Sink, error) {
	var w io.WriteCloser
	switch {
	case cfg.Port != "":
		port, err := OpenSerial(cfg.Port, cfg.BaudRate)
		if err != nil {
			return nil, err
		}
		w = port
	case cfg.Path == "-":
		w = nopCloser{os.Stdout}
	default:
		f, err := os.Create(cfg.Path)
		if err != nil {
			return nil, errors.Wrap(err, "couldn't create mask dump")
		}
		w = f
	}
	sink, err := NewSink(w, cfg.Format)
	if err != nil {
		return nil, multierr.Combine(err, w.Close())
	}
	return sink, nil
}

// WriteMask writes one mask and flushes it to the link
func (s *Sink) WriteMask(mask *sot.Mask) error {
	var err error
	if s.format == FormatFramed {
		err = WriteFrame(s.bw, mask)
	} else {
		err = WriteRows(s.bw, mask)
	}
	if err != nil {
		return err
	}
	return errors.Wrap(s.bw.Flush(), "couldn't flush mask dump")
}

// Close flushes buffered output and closes the link
func (s *Sink) Close() error {
	return multierr.Combine(s.bw.Flush(), s.closer.Close())
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}
