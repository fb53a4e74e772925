// Package config loads the planner configuration and the disk
// inventory from TOML files and translates them into the typed
// configuration the strategies take.
package config

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/rhinstaller/diskplanner/internal/bootloader"
	"github.com/rhinstaller/diskplanner/internal/check"
	"github.com/rhinstaller/diskplanner/internal/device"
	"github.com/rhinstaller/diskplanner/internal/partitioning"
	"github.com/rhinstaller/diskplanner/internal/planner"
)

// File is the on-disk configuration. Sizes are in MiB.
type File struct {
	Storage struct {
		Method        string   `toml:"method"`
		Scheme        string   `toml:"scheme"`
		Profile       string   `toml:"profile"`
		DefaultFSType string   `toml:"default_fstype"`
		BootFSType    string   `toml:"boot_fstype"`
		ContainerName string   `toml:"container_name"`
		SelectedDisks []string `toml:"selected_disks"`

		NoHome bool `toml:"nohome"`
		NoBoot bool `toml:"noboot"`
		NoSwap bool `toml:"noswap"`

		MemoryMiB   uint64 `toml:"memory"`
		Hibernation bool   `toml:"hibernation"`
	} `toml:"storage"`

	Encryption struct {
		Encrypted   bool   `toml:"encrypted"`
		Passphrase  string `toml:"passphrase"`
		LUKSVersion string `toml:"luks_version"`
		Cipher      string `toml:"cipher"`
		PBKDF       string `toml:"pbkdf"`
	} `toml:"encryption"`

	Clearing struct {
		Mode             string   `toml:"mode"`
		Drives           []string `toml:"drives"`
		Devices          []string `toml:"devices"`
		InitializeLabels *bool    `toml:"initialize_labels"`
		DisklabelType    string   `toml:"disklabel_type"`
		ClearNonExistent bool     `toml:"clear_non_existent"`
	} `toml:"clearing"`

	Bootloader struct {
		Skip     bool   `toml:"skip"`
		Firmware string `toml:"firmware"`
	} `toml:"bootloader"`

	Checker struct {
		Skip              []string `toml:"skip"`
		SwapIsRecommended *bool    `toml:"swap_is_recommended"`
		MinRootSizeMiB    uint64   `toml:"min_root_size"`
	} `toml:"checker"`
}

// LoadConfig reads the configuration file. A missing file yields the
// zero configuration, which maps to the defaults.
func LoadConfig(name string) (*File, error) {
	var c File
	_, err := toml.DecodeFile(name, &c)
	if err != nil {
		if os.IsNotExist(err) {
			return &c, nil
		}
		return nil, err
	}
	return &c, nil
}

// DumpConfig writes the configuration back as TOML.
func DumpConfig(c *File, w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Method returns the configured partitioning method.
func (c *File) Method() (partitioning.Method, error) {
	if c.Storage.Method == "" {
		return partitioning.MethodAutomatic, nil
	}
	return partitioning.ParseMethod(c.Storage.Method)
}

// Platform returns the configured target platform.
func (c *File) Platform() bootloader.Platform {
	switch c.Bootloader.Firmware {
	case "efi":
		return bootloader.Platform{Firmware: bootloader.EFI}
	case "ppc":
		return bootloader.Platform{Firmware: bootloader.PPC}
	}
	return bootloader.Platform{Firmware: bootloader.BIOS}
}

// StrategyConfig translates the file into the typed strategy
// configuration.
func (c *File) StrategyConfig() (partitioning.Config, error) {
	var cfg partitioning.Config

	scheme := planner.SchemeLVM
	if c.Storage.Scheme != "" {
		var err error
		scheme, err = planner.ParseScheme(c.Storage.Scheme)
		if err != nil {
			return cfg, err
		}
	}

	profile := planner.ProfileServer
	if c.Storage.Profile == "workstation" {
		profile = planner.ProfileWorkstation
	}

	clearing, err := c.clearing()
	if err != nil {
		return cfg, err
	}

	platform := c.Platform()
	cfg.Automatic = partitioning.AutomaticConfig{
		Platform: platform,
		Scheme:   scheme,
		Profile:  profile,
		Encryption: planner.EncryptionSpec{
			Encrypted:   c.Encryption.Encrypted,
			Passphrase:  c.Encryption.Passphrase,
			LUKSVersion: c.Encryption.LUKSVersion,
			Cipher:      c.Encryption.Cipher,
		},
		Clearing:      clearing,
		SelectedDisks: c.Storage.SelectedDisks,
		Options: planner.RequestOptions{
			NoHome:        c.Storage.NoHome,
			NoBoot:        c.Storage.NoBoot,
			NoSwap:        c.Storage.NoSwap,
			DefaultFSType: c.Storage.DefaultFSType,
			BootFSType:    c.Storage.BootFSType,
		},
		ContainerName:  c.Storage.ContainerName,
		Memory:         c.Storage.MemoryMiB * device.MiB,
		Hibernation:    c.Storage.Hibernation,
		SkipBootloader: c.Bootloader.Skip,
	}
	cfg.Custom = partitioning.CustomConfig{
		Platform:       platform,
		Clearing:       clearing,
		SkipBootloader: c.Bootloader.Skip,
	}
	cfg.Interactive = partitioning.InteractiveConfig{
		Platform:       platform,
		SkipBootloader: c.Bootloader.Skip,
	}
	return cfg, nil
}

func (c *File) clearing() (partitioning.DiskInitializationConfig, error) {
	cfg := partitioning.DiskInitializationConfig{
		DrivesToClear:    c.Clearing.Drives,
		DevicesToClear:   c.Clearing.Devices,
		DefaultLabelType: c.Clearing.DisklabelType,
		ClearNonExistent: c.Clearing.ClearNonExistent,
	}
	switch c.Clearing.Mode {
	case "", "default":
		cfg.Mode = partitioning.InitDefault
	case "none":
		cfg.Mode = partitioning.InitNone
	case "all":
		cfg.Mode = partitioning.InitAll
	case "list":
		cfg.Mode = partitioning.InitList
	case "linux":
		cfg.Mode = partitioning.InitLinux
	default:
		return cfg, &UnknownValueError{Section: "clearing", Key: "mode", Value: c.Clearing.Mode}
	}
	if c.Clearing.InitializeLabels != nil {
		cfg.InitializeLabels = *c.Clearing.InitializeLabels
	} else {
		cfg.InitializeLabels = cfg.Mode != partitioning.InitNone
	}
	return cfg, nil
}

// Constraints returns the checker constraints with the configured
// overrides applied.
func (c *File) Constraints() check.Constraints {
	constraints := check.DefaultConstraints()
	if c.Checker.SwapIsRecommended != nil {
		constraints.SwapIsRecommended = *c.Checker.SwapIsRecommended
	}
	if c.Checker.MinRootSizeMiB > 0 {
		constraints.MinRootSize = c.Checker.MinRootSizeMiB * device.MiB
	}
	return constraints
}

// UnknownValueError reports a configuration value outside the
// accepted set.
type UnknownValueError struct {
	Section string
	Key     string
	Value   string
}

func (e *UnknownValueError) Error() string {
	return "unknown value " + e.Value + " for " + e.Section + "." + e.Key
}
