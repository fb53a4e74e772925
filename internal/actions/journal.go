package actions

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rhinstaller/diskplanner/internal/device"
)

// ActionOrderError reports an attempt to cancel an action that later
// actions depend on.
type ActionOrderError struct {
	Seq    uint64
	Device string
}

func (e *ActionOrderError) Error() string {
	return fmt.Sprintf("action %d on %q cannot be removed: later actions depend on it", e.Seq, e.Device)
}

// ApplyError reports the first action that failed during apply.
type ApplyError struct {
	Seq uint64
	Err error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("applying action %d: %v", e.Seq, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Journal is the ordered log of scheduled actions.
type Journal struct {
	actions []*Action
	nextSeq uint64
}

// NewJournal returns an empty journal with sequence numbers starting
// at 1.
func NewJournal() *Journal {
	return &Journal{nextSeq: 1}
}

// Schedule appends the action and assigns its sequence number.
func (j *Journal) Schedule(a *Action) *Action {
	a.Seq = j.nextSeq
	j.nextSeq++
	j.actions = append(j.actions, a)
	logrus.Debugf("journal: scheduled [%d] %s", a.Seq, a.Describe())
	return a
}

// Actions returns the scheduled actions in sequence order.
func (j *Journal) Actions() []*Action {
	out := make([]*Action, len(j.actions))
	copy(out, j.actions)
	return out
}

// Len returns the number of scheduled actions.
func (j *Journal) Len() int { return len(j.actions) }

// Find returns the actions matching the given kind and device name,
// most recent first. An empty device name matches every device.
func (j *Journal) Find(kind Kind, deviceName string) []*Action {
	var out []*Action
	for i := len(j.actions) - 1; i >= 0; i-- {
		a := j.actions[i]
		if a.Kind != kind {
			continue
		}
		if deviceName != "" && a.DeviceName() != deviceName {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Remove cancels a previously scheduled action. Only the most
// recently scheduled action affecting the device may be removed if
// later actions target the same device or a device depending on it;
// otherwise the removal fails with an ActionOrderError.
func (j *Journal) Remove(a *Action) error {
	idx := -1
	for i, scheduled := range j.actions {
		if scheduled == a {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("action %d is not scheduled", a.Seq)
	}

	for _, later := range j.actions[idx+1:] {
		if later.DeviceName() == a.DeviceName() || device.DependsOn(later.Device, a.Device) {
			return &ActionOrderError{Seq: a.Seq, Device: a.DeviceName()}
		}
	}

	j.actions = append(j.actions[:idx], j.actions[idx+1:]...)
	logrus.Debugf("journal: removed [%d] %s", a.Seq, a.Describe())
	return nil
}

// Copy returns an independent journal with the same actions and
// sequence numbers. The remap function translates device references
// into their counterparts in a copied graph.
func (j *Journal) Copy(remap func(device.Device) device.Device) *Journal {
	clone := &Journal{
		actions: make([]*Action, len(j.actions)),
		nextSeq: j.nextSeq,
	}
	for i, a := range j.actions {
		copied := *a
		if remap != nil {
			if mapped := remap(a.Device); mapped != nil {
				copied.Device = mapped
			}
		}
		// a format that is live on the device stays aliased to the
		// copied device's format, so applying the copy marks the
		// copied device formatted
		if a.NewFormat != nil && a.Device != nil && a.NewFormat == a.Device.Format() {
			copied.NewFormat = copied.Device.Format()
		} else {
			copied.NewFormat = a.NewFormat.Clone()
		}
		clone.actions[i] = &copied
	}
	return clone
}
