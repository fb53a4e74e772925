package actions

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Executor performs one scheduled action against real storage. It is
// the boundary to the block-device tooling (mkfs, LVM, cryptsetup);
// this package only sequences the calls.
type Executor interface {
	Execute(ctx context.Context, a *Action) error
}

// Progress is called after each applied action with the position of
// the action, the total count and a description of the step.
type Progress func(step int, total int, description string)

// Apply replays the journal in sequence order against the executor.
// On the first failure it halts and returns an ApplyError naming the
// failing action; already applied actions are not rolled back, the
// caller decides between retry and abort. An apply that started runs
// to completion or to the first failure; the context is only handed
// through to the executor.
func (j *Journal) Apply(ctx context.Context, exec Executor, progress Progress) error {
	total := len(j.actions)
	for i, a := range j.actions {
		logrus.Infof("journal: applying [%d/%d] %s", i+1, total, a.Describe())
		if err := exec.Execute(ctx, a); err != nil {
			return &ApplyError{Seq: a.Seq, Err: err}
		}
		a.Device.SetExists(a.Kind != Destroy)
		if a.Kind == Format && a.NewFormat != nil {
			a.NewFormat.Exists = true
		}
		if progress != nil {
			progress(i+1, total, a.Describe())
		}
	}
	return nil
}

// NullExecutor acknowledges every action without touching storage.
// Useful for planning dry runs and tests.
type NullExecutor struct{}

func (NullExecutor) Execute(ctx context.Context, a *Action) error {
	return nil
}
