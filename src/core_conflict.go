package main

import "time"

// DecideConflict picks the action for a destination path given the policy.
// Timestamps are only compared when the destination exists.
func DecideConflict(exists bool, srcMod, dstMod time.Time, policy OverwritePolicy) Action {
	if !exists {
		return ActionCopy
	}

	switch policy {
	case AlwaysKeep:
		return ActionKeep
	case OverwriteIfSourceNewer:
		if srcMod.After(dstMod) {
			return ActionOverwrite
		}
		return ActionKeep
	case OverwriteIfSourceOlder:
		if srcMod.Before(dstMod) {
			return ActionOverwrite
		}
		return ActionKeep
	case AlwaysOverwrite:
		return ActionOverwrite
	}
	return ActionKeep
}
