package att

import (
	"errors"
	"time"

	"github.com/arloliu/go-beamline/logger"
)

// Stager is the generic staged-move protocol an attenuator augments. The
// attenuator records its blade configuration before delegating to Stage, and
// restores it after delegating to Unstage.
type Stager interface {
	Stage() error
	Unstage() error
}

type config struct {
	name             string
	logger           logger.Logger
	calcPendTimeout  time.Duration
	calcPendInterval time.Duration
	stager           Stager
}

func newConfig(opts ...Option) (*config, error) {
	cfg := &config{
		name:             "attenuator",
		logger:           logger.GetLogger(),
		calcPendTimeout:  1 * time.Second,
		calcPendInterval: 10 * time.Millisecond,
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Option represents a functional option for configuring an attenuator.
type Option interface {
	apply(*config) error
}

type optFunc struct {
	name      string
	applyFunc func(*config) error
}

func (o *optFunc) apply(cfg *config) error { return o.applyFunc(cfg) }

func newOptFunc(name string, f func(*config) error) *optFunc {
	return &optFunc{name: name, applyFunc: f}
}

// WithName sets the attenuator's name used in log messages and blade naming.
func WithName(name string) Option {
	return newOptFunc("WithName", func(cfg *config) error {
		if name == "" {
			return errors.New("name is empty")
		}
		cfg.name = name

		return nil
	})
}

// WithLogger sets the logger instance for the attenuator and its blades.
func WithLogger(l logger.Logger) Option {
	return newOptFunc("WithLogger", func(cfg *config) error {
		if l == nil {
			return errors.New("logger is nil")
		}
		cfg.logger = l

		return nil
	})
}

// WithCalcPendTimeout sets the hard timeout of the bounded wait for a pending
// ceiling/floor recalculation to clear before a direction is selected.
// Defaults to 1 second.
func WithCalcPendTimeout(d time.Duration) Option {
	return newOptFunc("WithCalcPendTimeout", func(cfg *config) error {
		if d <= 0 {
			return errors.New("calc pending timeout must be positive")
		}
		cfg.calcPendTimeout = d

		return nil
	})
}

// WithCalcPendInterval sets the poll interval of the bounded wait for a
// pending ceiling/floor recalculation. Defaults to 10 milliseconds.
func WithCalcPendInterval(d time.Duration) Option {
	return newOptFunc("WithCalcPendInterval", func(cfg *config) error {
		if d <= 0 {
			return errors.New("calc pending interval must be positive")
		}
		cfg.calcPendInterval = d

		return nil
	})
}

// WithStager sets the generic staged-move mechanism the attenuator defers to
// from Stage and Unstage.
func WithStager(s Stager) Option {
	return newOptFunc("WithStager", func(cfg *config) error {
		if s == nil {
			return errors.New("stager is nil")
		}
		cfg.stager = s

		return nil
	})
}
