package partitioning

import (
	"github.com/sirupsen/logrus"

	"github.com/rhinstaller/diskplanner/internal/bootloader"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
	"github.com/rhinstaller/diskplanner/internal/planner"
)

// AutomaticConfig is the full configuration of an automatic run.
type AutomaticConfig struct {
	Platform bootloader.Platform
	Scheme   planner.Scheme
	Profile  planner.Profile

	Encryption planner.EncryptionSpec
	Clearing   DiskInitializationConfig

	// SelectedDisks restricts the run to the named disks; empty means
	// all usable disks.
	SelectedDisks []string

	// Requests overrides the profile's mount point requests when set.
	Requests []planner.Request

	Options planner.RequestOptions

	// ContainerName names the volume group or btrfs volume.
	ContainerName string

	// Memory and Hibernation drive the swap size suggestion; a zero
	// Memory keeps the default swap size.
	Memory      uint64
	Hibernation bool

	SkipBootloader bool
}

// Automatic is the noninteractive strategy: clear, prepare the
// bootloader, schedule the full layout, finalize the bootloader.
type Automatic struct {
	cfg  AutomaticConfig
	boot *bootloader.GRUB
}

func NewAutomatic(cfg AutomaticConfig) *Automatic {
	boot := bootloader.NewGRUB(cfg.Platform)
	boot.SetSkip(cfg.SkipBootloader)
	return &Automatic{cfg: cfg, boot: boot}
}

func (a *Automatic) Method() Method { return MethodAutomatic }

func (a *Automatic) Bootloader() bootloader.Executor { return a.boot }

func (a *Automatic) Configure(t *devicetree.DeviceTree) error {
	cfg := a.cfg

	clearing := cfg.Clearing
	if clearing.Mode == InitDefault {
		clearing.Mode = InitAll
		clearing.InitializeLabels = true
	}
	if len(clearing.DrivesToClear) == 0 {
		clearing.DrivesToClear = cfg.SelectedDisks
	}
	if err := ClearPartitions(t, clearing); err != nil {
		return err
	}

	if err := a.boot.Prepare(t, true); err != nil {
		return err
	}

	base := cfg.Requests
	if base == nil {
		base = planner.DefaultPartitioning(cfg.Profile)
	}
	opts := cfg.Options
	if opts.DefaultFSType == "" {
		opts.DefaultFSType = "xfs"
	}
	requests := planner.FullRequests(cfg.Platform, base, opts)

	if cfg.Memory > 0 {
		a.updateSwapRequests(t, requests)
	}

	pl := &planner.Planner{
		Tree:          t,
		Boot:          a.boot,
		Scheme:        cfg.Scheme,
		Encryption:    cfg.Encryption,
		DefaultFSType: opts.DefaultFSType,
		ContainerName: cfg.ContainerName,
		SelectedDisks: cfg.SelectedDisks,
	}
	if err := pl.Plan(requests); err != nil {
		return err
	}

	return a.boot.Finalize(t)
}

// updateSwapRequests resizes the swap requests from the installed
// memory and the free space left after clearing.
func (a *Automatic) updateSwapRequests(t *devicetree.DeviceTree, requests []planner.Request) {
	disks := t.UsableDisks()
	free := t.DiskFreeSpace(disks)
	for i := range requests {
		if requests[i].FSType != "swap" {
			continue
		}
		requests[i].Size = planner.SuggestSwapSize(a.cfg.Memory, a.cfg.Hibernation, free)
		logrus.Debugf("partitioning: swap request sized to %d bytes", requests[i].Size)
	}
}
