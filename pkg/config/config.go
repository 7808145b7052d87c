// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📏 ByteSize is a byte count that accepts humanized strings
// ("128GB", "512 MiB") as well as plain integers.
type ByteSize int64

// ParseByteSize parses a humanized byte count.
func ParseByteSize(s string) (ByteSize, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, errors.Errorf("parsing byte size %q: %w", s, err)
	}
	return ByteSize(n), nil
}

func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseByteSize(value.Value)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func (b *ByteSize) UnmarshalJSON(data []byte) error {
	parsed, err := ParseByteSize(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func (b ByteSize) String() string {
	return humanize.Bytes(uint64(b))
}

// ⏱️ Duration accepts Go duration strings ("10s", "2m").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return errors.Errorf("parsing duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	parsed, err := time.ParseDuration(strings.Trim(string(data), `"`))
	if err != nil {
		return errors.Errorf("parsing duration %q: %w", string(data), err)
	}
	*d = Duration(parsed)
	return nil
}

// 💾 DefaultPathTemplate resolves a device UUID to its node under /dev
const DefaultPathTemplate = "/dev/disk/by-uuid/%s"

// 📦 StorageDeviceSpec is the mountable-block-device source location
type StorageDeviceSpec struct {
	UUID         string   `json:"uuid" yaml:"uuid"`                                       // filesystem UUID of the device
	PathTemplate string   `json:"path_template,omitempty" yaml:"path_template,omitempty"` // %s is replaced by the UUID
	MountOptions []string `json:"mount_options,omitempty" yaml:"mount_options,omitempty"` // passed to mount -o
}

// 🔍 DevicePath resolves the device node path for this spec
func (s *StorageDeviceSpec) DevicePath() string {
	tmpl := s.PathTemplate
	if tmpl == "" {
		tmpl = DefaultPathTemplate
	}
	return fmt.Sprintf(tmpl, s.UUID)
}

// 🗂️ SourceSpec describes one archival source. Exactly one location
// variant must be set; storage_device is the only one today.
type SourceSpec struct {
	StorageDevice  *StorageDeviceSpec `json:"storage_device,omitempty" yaml:"storage_device,omitempty"`
	Patterns       []string           `json:"patterns,omitempty" yaml:"patterns,omitempty"`             // globs to archive
	DeletePatterns []string           `json:"delete_patterns,omitempty" yaml:"delete_patterns,omitempty"` // globs to purge after archiving
}

// 🎯 DestinationSpec is the single shared archive destination
type DestinationSpec struct {
	Path     string    `json:"path" yaml:"path"`
	LoopSize *ByteSize `json:"loop_size" yaml:"loop_size"` // quota the destination must not exceed
}

// 👀 WatchConfig controls device-arrival triggering in daemon mode
type WatchConfig struct {
	Enabled      bool     `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Mode         string   `json:"mode,omitempty" yaml:"mode,omitempty"` // auto, fsnotify or poll
	PollInterval Duration `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`
	Debounce     Duration `json:"debounce,omitempty" yaml:"debounce,omitempty"`
}

// Watch modes.
const (
	WatchModeAuto     = "auto"
	WatchModeFsnotify = "fsnotify"
	WatchModePoll     = "poll"
)

// ⏰ DaemonConfig configures unattended operation
type DaemonConfig struct {
	Schedule      string      `json:"schedule,omitempty" yaml:"schedule,omitempty"` // cron expression
	Watch         WatchConfig `json:"watch,omitempty" yaml:"watch,omitempty"`
	LogFile       string      `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogMaxSizeMB  int         `json:"log_max_size_mb,omitempty" yaml:"log_max_size_mb,omitempty"`
	LogMaxBackups int         `json:"log_max_backups,omitempty" yaml:"log_max_backups,omitempty"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Destination DestinationSpec `json:"destination" yaml:"destination"`
	Sources     []SourceSpec    `json:"sources" yaml:"sources"`
	Daemon      *DaemonConfig   `json:"daemon,omitempty" yaml:"daemon,omitempty"`
}

// 🔍 Validate checks the configuration and fills in defaults
func (cfg *Config) Validate() error {
	if cfg.Destination.Path == "" {
		return errors.Errorf("destination.path is required")
	}
	cfg.Destination.Path = filepath.Clean(cfg.Destination.Path)
	if cfg.Destination.LoopSize == nil {
		return errors.Errorf("destination.loop_size is required")
	}
	if *cfg.Destination.LoopSize < 0 {
		return errors.Errorf("destination.loop_size must not be negative")
	}

	if len(cfg.Sources) == 0 {
		return errors.Errorf("at least one source is required")
	}
	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		if src.StorageDevice == nil {
			return errors.Errorf("sources[%d]: no supported location, expected storage_device", i)
		}
		if src.StorageDevice.UUID == "" {
			return errors.Errorf("sources[%d]: storage_device.uuid is required", i)
		}
		if src.StorageDevice.PathTemplate == "" {
			src.StorageDevice.PathTemplate = DefaultPathTemplate
		}
		for _, pattern := range src.Patterns {
			if !doublestar.ValidatePattern(pattern) {
				return errors.Errorf("sources[%d]: invalid pattern %q", i, pattern)
			}
		}
		for _, pattern := range src.DeletePatterns {
			if !doublestar.ValidatePattern(pattern) {
				return errors.Errorf("sources[%d]: invalid delete pattern %q", i, pattern)
			}
		}
	}

	if cfg.Daemon != nil {
		if err := cfg.Daemon.validate(); err != nil {
			return err
		}
	}

	return nil
}

func (d *DaemonConfig) validate() error {
	if d.Schedule == "" && !d.Watch.Enabled {
		return errors.Errorf("daemon requires a schedule, watch.enabled, or both")
	}
	switch d.Watch.Mode {
	case "":
		d.Watch.Mode = WatchModeAuto
	case WatchModeAuto, WatchModeFsnotify, WatchModePoll:
	default:
		return errors.Errorf("daemon.watch.mode must be %s, %s or %s", WatchModeAuto, WatchModeFsnotify, WatchModePoll)
	}
	if d.Watch.PollInterval == 0 {
		d.Watch.PollInterval = Duration(10 * time.Second)
	}
	if d.Watch.Debounce == 0 {
		d.Watch.Debounce = Duration(2 * time.Second)
	}
	if d.LogMaxSizeMB == 0 {
		d.LogMaxSizeMB = 20
	}
	if d.LogMaxBackups == 0 {
		d.LogMaxBackups = 3
	}
	return nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	quota := "unset"
	if cfg.Destination.LoopSize != nil {
		quota = cfg.Destination.LoopSize.String()
	}
	return fmt.Sprintf("%d sources -> %s (quota %s)", len(cfg.Sources), cfg.Destination.Path, quota)
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
