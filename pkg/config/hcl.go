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
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// Define HCL schema
	type hclWatch struct {
		Enabled      bool   `hcl:"enabled,optional"`
		Mode         string `hcl:"mode,optional"`
		PollInterval string `hcl:"poll_interval,optional"`
		Debounce     string `hcl:"debounce,optional"`
	}
	type hclConfig struct {
		Destination struct {
			Path     string `hcl:"path"`
			LoopSize string `hcl:"loop_size"`
		} `hcl:"destination,block"`
		Sources []struct {
			StorageDevice *struct {
				UUID         string   `hcl:"uuid"`
				PathTemplate string   `hcl:"path_template,optional"`
				MountOptions []string `hcl:"mount_options,optional"`
			} `hcl:"storage_device,block"`
			Patterns       []string `hcl:"patterns,optional"`
			DeletePatterns []string `hcl:"delete_patterns,optional"`
		} `hcl:"source,block"`
		Daemon *struct {
			Schedule      string    `hcl:"schedule,optional"`
			Watch         *hclWatch `hcl:"watch,block"`
			LogFile       string    `hcl:"log_file,optional"`
			LogMaxSizeMB  int       `hcl:"log_max_size_mb,optional"`
			LogMaxBackups int       `hcl:"log_max_backups,optional"`
		} `hcl:"daemon,block"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	loopSize, err := ParseByteSize(hclCfg.Destination.LoopSize)
	if err != nil {
		return nil, errors.Errorf("destination.loop_size: %w", err)
	}
	cfg := &Config{
		Destination: DestinationSpec{
			Path:     hclCfg.Destination.Path,
			LoopSize: &loopSize,
		},
	}

	for _, s := range hclCfg.Sources {
		src := SourceSpec{
			Patterns:       s.Patterns,
			DeletePatterns: s.DeletePatterns,
		}
		if s.StorageDevice != nil {
			src.StorageDevice = &StorageDeviceSpec{
				UUID:         s.StorageDevice.UUID,
				PathTemplate: s.StorageDevice.PathTemplate,
				MountOptions: s.StorageDevice.MountOptions,
			}
		}
		cfg.Sources = append(cfg.Sources, src)
	}

	if hclCfg.Daemon != nil {
		daemon := &DaemonConfig{
			Schedule:      hclCfg.Daemon.Schedule,
			LogFile:       hclCfg.Daemon.LogFile,
			LogMaxSizeMB:  hclCfg.Daemon.LogMaxSizeMB,
			LogMaxBackups: hclCfg.Daemon.LogMaxBackups,
		}
		if w := hclCfg.Daemon.Watch; w != nil {
			daemon.Watch = WatchConfig{
				Enabled: w.Enabled,
				Mode:    w.Mode,
			}
			if w.PollInterval != "" {
				parsed, err := time.ParseDuration(w.PollInterval)
				if err != nil {
					return nil, errors.Errorf("daemon.watch.poll_interval: %w", err)
				}
				daemon.Watch.PollInterval = Duration(parsed)
			}
			if w.Debounce != "" {
				parsed, err := time.ParseDuration(w.Debounce)
				if err != nil {
					return nil, errors.Errorf("daemon.watch.debounce: %w", err)
				}
				daemon.Watch.Debounce = Duration(parsed)
			}
		}
		cfg.Daemon = daemon
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}
