package executor

import (
	"fmt"
	"io"
	"time"

	"github.com/go-foundations/conc/queue"
	"gopkg.in/yaml.v3"
)

// Config configures a Pool.
type Config struct {
	CoreSize         int           `yaml:"core_size"`
	MaxSize          int           `yaml:"max_size"`
	KeepAlive        time.Duration `yaml:"keep_alive"`
	AllowCoreTimeout bool          `yaml:"allow_core_timeout"`

	// WorkQueue is the pending-task queue. If nil, New fills in an
	// unbounded queue.LinkedBlockingQueue[*TaskEnvelope].
	WorkQueue queue.BlockingQueue[*TaskEnvelope] `yaml:"-"`

	// ThreadFactory spawns worker goroutines. If nil, DefaultThreadFactory.
	ThreadFactory ThreadFactory `yaml:"-"`

	// RejectionPolicy decides what happens to a task Execute could not
	// place. The zero value is RejectAbort, i.e. Abort().
	RejectionPolicy RejectionPolicy `yaml:"-"`

	// ContextCarrierFactory optionally restores ambient context values
	// onto each task's execution context.
	ContextCarrierFactory ContextCarrierFactory `yaml:"-"`

	BeforeExecute func(task Runnable)
	AfterExecute  func(task Runnable, panicVal any)
	OnShutdown    func()
	Terminated    func()
}

// DefaultConfig returns a fixed-size pool of 4 core/max workers, an
// unbounded work queue, and the abort rejection policy.
func DefaultConfig() Config {
	return Config{
		CoreSize:  4,
		MaxSize:   4,
		KeepAlive: 60 * time.Second,
	}
}

func (c *Config) validate() error {
	if c.CoreSize < 0 || c.MaxSize < 1 || c.MaxSize < c.CoreSize {
		return fmt.Errorf("%w: core_size=%d max_size=%d", ErrInvalidConfig, c.CoreSize, c.MaxSize)
	}
	if c.KeepAlive < 0 {
		return fmt.Errorf("%w: keep_alive=%s", ErrInvalidConfig, c.KeepAlive)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.WorkQueue == nil {
		c.WorkQueue = queue.NewLinked[*TaskEnvelope](0)
	}
	if c.ThreadFactory == nil {
		c.ThreadFactory = DefaultThreadFactory
	}
	if c.RejectionPolicy.kind == 0 && c.RejectionPolicy.fn == nil {
		c.RejectionPolicy = Abort()
	}
}

// yamlConfig mirrors the subset of Config that can round-trip through
// YAML; collaborators (queues, factories, hooks) are not serializable
// and are left at their New-time defaults.
type yamlConfig struct {
	CoreSize         int    `yaml:"core_size"`
	MaxSize          int    `yaml:"max_size"`
	KeepAlive        string `yaml:"keep_alive"`
	AllowCoreTimeout bool   `yaml:"allow_core_timeout"`
}

// LoadConfigYAML reads a Config's scalar fields from YAML, e.g.:
//
//	core_size: 4
//	max_size: 16
//	keep_alive: 30s
//	allow_core_timeout: false
//
// Collaborators (WorkQueue, ThreadFactory, RejectionPolicy,
// ContextCarrierFactory, hooks) are not representable in YAML and must be
// set on the returned Config afterward.
func LoadConfigYAML(r io.Reader) (Config, error) {
	var raw yamlConfig
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return Config{}, fmt.Errorf("executor: decode config yaml: %w", err)
	}

	cfg := DefaultConfig()
	cfg.CoreSize = raw.CoreSize
	cfg.MaxSize = raw.MaxSize
	cfg.AllowCoreTimeout = raw.AllowCoreTimeout
	if raw.KeepAlive != "" {
		d, err := time.ParseDuration(raw.KeepAlive)
		if err != nil {
			return Config{}, fmt.Errorf("executor: parse keep_alive: %w", err)
		}
		cfg.KeepAlive = d
	}
	return cfg, nil
}
