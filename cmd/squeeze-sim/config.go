package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ThomWright/squeeze/limit"
)

// duration is a time.Duration that unmarshals from YAML strings like "20ms".
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = duration(parsed)
	return nil
}

func (d duration) std() time.Duration { return time.Duration(d) }

// scenario describes the workload, the server model and the algorithm under
// test.
type scenario struct {
	// Duration is the simulated wall-clock time to run for.
	Duration duration `yaml:"duration"`
	// Tick is the simulated time between algorithm updates.
	Tick duration `yaml:"tick"`

	Workload  workloadConfig  `yaml:"workload"`
	Server    serverConfig    `yaml:"server"`
	Algorithm algorithmConfig `yaml:"algorithm"`
}

type workloadConfig struct {
	// Clients is the number of concurrent clients offering load.
	Clients int `yaml:"clients"`
}

type serverConfig struct {
	// BaseLatency is the response time while the server is uncontended.
	BaseLatency duration `yaml:"base_latency"`
	// Capacity is the concurrency above which latency grows linearly.
	Capacity int `yaml:"capacity"`
	// OverloadAt is the concurrency above which requests fail.
	OverloadAt int `yaml:"overload_at"`
}

type algorithmConfig struct {
	Kind string `yaml:"kind"`

	AIMD     aimdConfig     `yaml:"aimd"`
	Vegas    vegasConfig    `yaml:"vegas"`
	Gradient gradientConfig `yaml:"gradient"`
	Static   staticConfig   `yaml:"static"`
}

// Zero values fall through to the algorithm defaults.

type aimdConfig struct {
	InitialLimit           int     `yaml:"initial_limit"`
	MinLimit               int     `yaml:"min_limit"`
	MaxLimit               int     `yaml:"max_limit"`
	IncreaseBy             int     `yaml:"increase_by"`
	DecreaseFactor         float64 `yaml:"decrease_factor"`
	IncreaseMinUtilisation float64 `yaml:"increase_min_utilisation"`
}

type vegasConfig struct {
	InitialLimit   int     `yaml:"initial_limit"`
	MinLimit       int     `yaml:"min_limit"`
	MaxLimit       int     `yaml:"max_limit"`
	DecreaseFactor float64 `yaml:"decrease_factor"`
}

type gradientConfig struct {
	InitialLimit       int      `yaml:"initial_limit"`
	MinLimit           int      `yaml:"min_limit"`
	MaxLimit           int      `yaml:"max_limit"`
	Smoothing          float64  `yaml:"smoothing"`
	Tolerance          float64  `yaml:"tolerance"`
	GradientLowerBound float64  `yaml:"gradient_lower_bound"`
	WindowMinSamples   int      `yaml:"window_min_samples"`
	WindowMinDuration  duration `yaml:"window_min_duration"`
}

type staticConfig struct {
	Limit int `yaml:"limit"`
}

func (c *scenario) defaults() {
	if c.Duration == 0 {
		c.Duration = duration(30 * time.Second)
	}
	if c.Tick == 0 {
		c.Tick = duration(100 * time.Millisecond)
	}
	if c.Workload.Clients == 0 {
		c.Workload.Clients = 50
	}
	if c.Server.BaseLatency == 0 {
		c.Server.BaseLatency = duration(20 * time.Millisecond)
	}
	if c.Server.Capacity == 0 {
		c.Server.Capacity = 25
	}
	if c.Server.OverloadAt == 0 {
		c.Server.OverloadAt = 2 * c.Server.Capacity
	}
	if c.Algorithm.Kind == "" {
		c.Algorithm.Kind = "gradient"
	}
}

func (c *scenario) validate() error {
	if c.Workload.Clients < 1 {
		return fmt.Errorf("workload.clients must be at least 1, got %d", c.Workload.Clients)
	}
	if c.Server.Capacity < 1 {
		return fmt.Errorf("server.capacity must be at least 1, got %d", c.Server.Capacity)
	}
	if c.Server.OverloadAt < c.Server.Capacity {
		return fmt.Errorf("server.overload_at (%d) must not be below server.capacity (%d)", c.Server.OverloadAt, c.Server.Capacity)
	}
	return nil
}

// loadScenario reads a scenario from a YAML file, or returns the defaults
// when the path is empty.
func loadScenario(path string) (*scenario, error) {
	var c scenario

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read scenario file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("could not parse scenario file %q: %w", path, err)
		}
	}

	c.defaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// algorithm creates the algorithm under test from the scenario.
func (c *scenario) algorithm() (limit.Algorithm, error) {
	switch c.Algorithm.Kind {
	case "aimd":
		a := c.Algorithm.AIMD
		return limit.NewAIMD(limit.AIMDConfig{
			InitialLimit:           a.InitialLimit,
			MinLimit:               a.MinLimit,
			MaxLimit:               a.MaxLimit,
			IncreaseBy:             a.IncreaseBy,
			DecreaseFactor:         a.DecreaseFactor,
			IncreaseMinUtilisation: a.IncreaseMinUtilisation,
		})
	case "vegas":
		v := c.Algorithm.Vegas
		return limit.NewVegas(limit.VegasConfig{
			InitialLimit:   v.InitialLimit,
			MinLimit:       v.MinLimit,
			MaxLimit:       v.MaxLimit,
			DecreaseFactor: v.DecreaseFactor,
		})
	case "gradient":
		g := c.Algorithm.Gradient
		return limit.NewGradient(limit.GradientConfig{
			InitialLimit:       g.InitialLimit,
			MinLimit:           g.MinLimit,
			MaxLimit:           g.MaxLimit,
			Smoothing:          g.Smoothing,
			Tolerance:          g.Tolerance,
			GradientLowerBound: g.GradientLowerBound,
			WindowMinSamples:   g.WindowMinSamples,
			WindowMinDuration:  g.WindowMinDuration.std(),
		})
	case "static":
		l := c.Algorithm.Static.Limit
		if l == 0 {
			l = 10
		}
		return limit.NewStatic(l), nil
	default:
		return nil, fmt.Errorf("unknown algorithm kind %q", c.Algorithm.Kind)
	}
}
