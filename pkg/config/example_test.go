package config_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/walteh/looprc/pkg/config"
)

func ExampleLoad() {
	ctx := context.Background()

	configYAML := `
destination:
  path: /srv/footage
  loop_size: 128GB
sources:
  - storage_device:
      uuid: "4E21-0000"
    patterns: ["*.MP4"]
    delete_patterns: ["*.THM", "*.LRV"]
`

	configPath := filepath.Join(os.TempDir(), "example.looprc.yaml")
	if err := os.WriteFile(configPath, []byte(configYAML), 0o644); err != nil {
		fmt.Printf("Error writing config: %v\n", err)
		return
	}
	defer os.Remove(configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	fmt.Println(cfg.String())
	fmt.Println(cfg.Sources[0].StorageDevice.DevicePath())
	// Output:
	// 1 sources -> /srv/footage (quota 128 GB)
	// /dev/disk/by-uuid/4E21-0000
}
