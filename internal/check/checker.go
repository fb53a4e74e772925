package check

import (
	"github.com/sirupsen/logrus"

	"github.com/rhinstaller/diskplanner/internal/bootloader"
	"github.com/rhinstaller/diskplanner/internal/devicetree"
)

// State is what one checker run looks at: the planned tree, the
// bootloader in charge of it and the constraint set.
type State struct {
	Tree        *devicetree.DeviceTree
	Boot        bootloader.Executor
	Constraints Constraints
}

// CheckFunc inspects the state and records findings. Check functions
// report through the report only; they do not return errors.
type CheckFunc func(st *State, r *Report)

// Check is a named validation step.
type Check struct {
	Name string
	Run  CheckFunc
}

// Checker runs an ordered battery of checks over a planned
// configuration.
type Checker struct {
	checks  []Check
	skipped map[string]bool
}

// NewChecker returns a checker with the default battery registered.
func NewChecker() *Checker {
	c := &Checker{
		skipped: make(map[string]bool),
	}
	c.AddCheck(Check{Name: "root", Run: verifyRoot})
	c.AddCheck(Check{Name: "partition-sizes", Run: verifyPartitionSizes})
	c.AddCheck(Check{Name: "partition-format-sizes", Run: verifyPartitionFormatSizes})
	c.AddCheck(Check{Name: "bootloader", Run: verifyBootloader})
	c.AddCheck(Check{Name: "gpt-biosboot", Run: verifyGPTBiosBoot})
	c.AddCheck(Check{Name: "swap", Run: verifySwap})
	c.AddCheck(Check{Name: "swap-uuid", Run: verifySwapUUID})
	c.AddCheck(Check{Name: "mountpoints-on-linuxfs", Run: verifyMountpointsOnLinuxFS})
	c.AddCheck(Check{Name: "must-be-on-root", Run: verifyMountpointsOnRoot})
	c.AddCheck(Check{Name: "must-not-be-on-root", Run: verifyMountpointsNotOnRoot})
	c.AddCheck(Check{Name: "luks-keys", Run: verifyLUKSDevices})
	return c
}

// AddCheck appends a check to the battery.
func (c *Checker) AddCheck(check Check) {
	c.checks = append(c.checks, check)
}

// Skip disables the named check for subsequent runs.
func (c *Checker) Skip(name string) {
	c.skipped[name] = true
}

// Check runs the battery and aggregates all findings. A single run
// reports every problem it can find; findings never abort the
// battery. A panicking check is a programming error and propagates.
func (c *Checker) Check(st *State) *Report {
	report := &Report{}
	for _, check := range c.checks {
		if c.skipped[check.Name] {
			logrus.Debugf("check: skipping %q", check.Name)
			continue
		}
		check.Run(st, report)
	}
	logrus.Debugf("check: %d error(s), %d warning(s)",
		len(report.Errors), len(report.Warnings))
	return report
}
