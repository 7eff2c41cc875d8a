package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seqsense/pcchain/registration"
)

const (
	storeDir    = "dir"
	storeSQLite = "sqlite"

	backendCommand = "command"
	backendICP     = "icp"
)

type scansConfig struct {
	Dir     string   `yaml:"dir"`
	Pattern string   `yaml:"pattern"`
	Paths   []string `yaml:"paths"`
}

type storeConfig struct {
	Type      string `yaml:"type"`
	Dir       string `yaml:"dir"`
	SQLite    string `yaml:"sqlite"`
	Namespace string `yaml:"namespace"`
}

type icpConfig struct {
	MatchRange   float32 `yaml:"match_range"`
	MaxIteration int     `yaml:"max_iteration"`
}

type registrationConfig struct {
	Backend  string        `yaml:"backend"`
	Binary   string        `yaml:"binary"`
	LambdaS3 float64       `yaml:"lambda_s3"`
	LambdaR3 float64       `yaml:"lambda_r3"`
	Timeout  time.Duration `yaml:"timeout"`
	WorkDir  string        `yaml:"work_dir"`
	ICP      icpConfig     `yaml:"icp"`
}

type outputConfig struct {
	HTML             string   `yaml:"html"`
	PCD              string   `yaml:"pcd"`
	Title            string   `yaml:"title"`
	Palette          []string `yaml:"palette"`
	MaxPointsPerScan int      `yaml:"max_points_per_scan"`
}

type config struct {
	Scans          scansConfig        `yaml:"scans"`
	Store          storeConfig        `yaml:"store"`
	Registration   registrationConfig `yaml:"registration"`
	Output         outputConfig       `yaml:"output"`
	Orthonormalize bool               `yaml:"orthonormalize"`
}

func defaultConfig() config {
	return config{
		Scans: scansConfig{
			Pattern: `(?i)\.(pcd|ply)$`,
		},
		Store: storeConfig{
			Type:      storeDir,
			Dir:       ".",
			Namespace: "default",
		},
		Registration: registrationConfig{
			Backend:  backendCommand,
			Binary:   "dpvMFoptRotPly",
			LambdaS3: registration.DefaultLambdaS3,
			LambdaR3: registration.DefaultLambdaR3,
			Timeout:  registration.DefaultTimeout,
		},
		Output: outputConfig{
			Title: "pcchain",
		},
	}
}

// loadConfig reads path on top of the defaults. An empty path returns the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func (c *config) validate() error {
	switch c.Store.Type {
	case storeDir:
	case storeSQLite:
		if c.Store.SQLite == "" {
			return errors.New("store.sqlite must be set for sqlite store")
		}
	default:
		return fmt.Errorf("unknown store type %q", c.Store.Type)
	}
	switch c.Registration.Backend {
	case backendCommand:
		if c.Registration.Binary == "" {
			return errors.New("registration.binary must be set for command backend")
		}
	case backendICP:
	default:
		return fmt.Errorf("unknown registration backend %q", c.Registration.Backend)
	}
	if c.Registration.Timeout < 0 {
		return errors.New("registration.timeout must not be negative")
	}
	return nil
}
