// Package bootimage loads a kernel image (and optional flat device
// tree blob) into a guest RAM buffer and computes the boot-ABI
// register values the engine's caller should seed before the first
// Step call. It also decodes the optional YAML machine-config file
// the host binary accepts via -config.
package bootimage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const ConfigFilename = "rv32ima.yaml"

// Config describes a machine to boot: how much RAM to give it, where
// the kernel and (optional) device-tree blob live on the host
// filesystem, and the kernel command line. BootArgs is written into
// /chosen/bootargs of the synthesized device tree; it is not used when
// a DTB file is given.
type Config struct {
	MemoryMB  uint64 `yaml:"memoryMB"`
	Kernel    string `yaml:"kernel"`
	DTB       string `yaml:"dtb,omitempty"`
	BootArgs  string `yaml:"bootArgs,omitempty"`
	StepBatch uint32 `yaml:"stepBatch,omitempty"`
	Debug     bool   `yaml:"debug,omitempty"`
}

func (c *Config) normalize() {
	if c.MemoryMB == 0 {
		c.MemoryMB = 64
	}
	if c.StepBatch == 0 {
		c.StepBatch = 1024
	}
}

// LoadConfig reads and decodes a Config from path, applying defaults
// for anything left unset.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}
