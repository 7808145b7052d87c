/*
Package config manages configuration parsing and validation for looprc.

	            +-------------+
	            |   Config    |
	            | (Job Spec)  |
	            +------+------+
	                   |
	    +-------------+-------------+
	    |             |             |
	+---+----+   +----+---+   +----+----+
	|  YAML  |   |  HCL   |   |  JSON   |
	| Parser |   | Parser |   | Parser  |
	+--------+   +--------+   +---------+

🎯 Purpose:
- Describes the destination quota and every archival source
- Validates configuration values before anything touches a device
- Provides type-safe config access (ByteSize, Duration)
- Supports multiple config formats

🔄 Flow:
1. Reads configuration from file
2. Parses format-specific syntax
3. Validates values and fills in defaults (device path template, watch intervals)
4. Provides the validated, immutable config to the rest of the run

⚡ Key Responsibilities:
- Configuration parsing
- Location-variant validation (storage_device is the only variant today)
- Humanized byte sizes for loop_size
- Default value management
- Format abstraction

🤝 Interfaces:
- Parser: Format-specific parsing
- Config: Type-safe config access

📝 Design Philosophy:
A config is loaded once per run and never mutated afterwards. Everything
that can be rejected at load time is rejected at load time: a source with
no supported location, an uncompilable glob, or a missing quota never
reaches the mount layer.

🔍 Example:

	cfg, err := config.Load(ctx, ".looprc.yaml")
	if err != nil {
		return err
	}

	for _, src := range cfg.Sources {
		fmt.Println(src.StorageDevice.DevicePath())
	}
*/
package config
