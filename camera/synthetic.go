package camera

import (
	"context"
	"image"
	"image/color"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/LdDl/sot-go/sot"
)

var (
	// TargetColor is the colour the synthetic scene paints its target with.
	TargetColor = color.RGBA{R: 220, G: 20, B: 20, A: 255}
	// BackgroundColor fills the rest of a synthetic frame.
	BackgroundColor = color.RGBA{R: 40, G: 60, B: 40, A: 255}
)

// SceneConfig describes a synthetic scene: one disc bouncing inside the frame.
type SceneConfig struct {
	Radius    int `json:"radius"`
	StartX    int `json:"start_x"`
	StartY    int `json:"start_y"`
	VelocityX int `json:"velocity_x"`
	VelocityY int `json:"velocity_y"`
	// OccludeEvery hides the disc on every n-th frame. Zero disables occlusion.
	OccludeEvery int `json:"occlude_every"`
	// DropEvery never completes every n-th capture. Zero disables drops.
	DropEvery int `json:"drop_every"`
	// Latency is the delay between StartCapture and the capture-complete signal.
	Latency time.Duration `json:"latency"`
}

// DefaultSceneConfig returns a slow disc starting off center
func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		Radius:    4,
		StartX:    40,
		StartY:    30,
		VelocityX: 2,
		VelocityY: 1,
		Latency:   30 * time.Millisecond,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg SceneConfig) Validate(path string, width, height int) error {
	if cfg.Radius <= 0 {
		return errors.Errorf("%s: radius must be positive", path)
	}
	if 2*cfg.Radius+1 > width || 2*cfg.Radius+1 > height {
		return errors.Errorf("%s: a disc of radius %d does not fit into %dx%d", path, cfg.Radius, width, height)
	}
	if cfg.OccludeEvery < 0 || cfg.DropEvery < 0 {
		return errors.Errorf("%s: occlude_every and drop_every cannot be negative", path)
	}
	if cfg.Latency < 0 {
		return errors.Errorf("%s: latency cannot be negative", path)
	}
	return nil
}

// Synthetic is a FrameSource rendering a moving disc. It is meant for
// simulation and for exercising the loop without hardware.
type Synthetic struct {
	width  int
	height int
	cfg    SceneConfig
	clk    clock.Clock
	poll   time.Duration

	frame    int
	pos      sot.Pixel
	vx, vy   int
	readyAt  time.Time
	dropping bool
}

var _ sot.FrameSource = (*Synthetic)(nil)

// NewSynthetic creates a synthetic scene of the given geometry. poll is the
// interval at which WaitCapture checks for completion.
func NewSynthetic(width, height int, cfg SceneConfig, clk clock.Clock, poll time.Duration) *Synthetic {
	s := &Synthetic{
		width:  width,
		height: height,
		cfg:    cfg,
		clk:    clk,
		poll:   poll,
		pos:    sot.NewPixel(cfg.StartX, cfg.StartY),
		vx:     cfg.VelocityX,
		vy:     cfg.VelocityY,
	}
	s.pos.X = bounce(s.pos.X, &s.vx, cfg.Radius, width)
	s.pos.Y = bounce(s.pos.Y, &s.vy, cfg.Radius, height)
	return s
}

// Target returns where the disc is drawn on the current frame, or
// sot.NoTarget when it is occluded.
func (s *Synthetic) Target() sot.Pixel {
	if s.occluded() {
		return sot.NoTarget
	}
	return s.pos
}

// StartCapture advances the scene by one frame
func (s *Synthetic) StartCapture(ctx context.Context) error {
	s.frame++
	if s.frame > 1 {
		s.pos.X = bounce(s.pos.X+s.vx, &s.vx, s.cfg.Radius, s.width)
		s.pos.Y = bounce(s.pos.Y+s.vy, &s.vy, s.cfg.Radius, s.height)
	}
	s.readyAt = s.clk.Now().Add(s.cfg.Latency)
	s.dropping = s.cfg.DropEvery > 0 && s.frame%s.cfg.DropEvery == 0
	return nil
}

// WaitCapture waits out the configured latency. Dropped captures never complete.
func (s *Synthetic) WaitCapture(ctx context.Context, timeout time.Duration) error {
	return WaitFor(ctx, s.clk, timeout, s.poll, func() bool {
		return !s.dropping && !s.clk.Now().Before(s.readyAt)
	})
}

// ReadFrame renders the current frame
func (s *Synthetic) ReadFrame(ctx context.Context) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = BackgroundColor.R
		img.Pix[i+1] = BackgroundColor.G
		img.Pix[i+2] = BackgroundColor.B
		img.Pix[i+3] = BackgroundColor.A
	}
	if s.occluded() {
		return img, nil
	}
	r := s.cfg.Radius
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(s.pos.X+dx, s.pos.Y+dy, TargetColor)
			}
		}
	}
	return img, nil
}

func (s *Synthetic) occluded() bool {
	return s.cfg.OccludeEvery > 0 && s.frame%s.cfg.OccludeEvery == 0
}

// bounce keeps a disc of radius r inside [0, size) by reflecting its velocity
func bounce(v int, velocity *int, r, size int) int {
	if v-r < 0 {
		*velocity = -*velocity
		return r
	}
	if v+r > size-1 {
		*velocity = -*velocity
		return size - 1 - r
	}
	return v
}
