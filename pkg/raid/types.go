// Package raid checks the health of Linux software RAID (md) arrays from sysfs.
package raid

import "path"

// Member is a snapshot of one md member device, read from
// /sys/block/mdX/md/dev-*.
type Member struct {
	Slot           *int   `json:"slot"`
	Path           string `json:"path"`
	BlockDevice    string `json:"block_device"` // /dev/<name>
	State          string `json:"state"`
	SlotLink       string `json:"slot_link,omitempty"`
	SlotLinkExists bool   `json:"slot_link_exists"`
}

// Name returns the member's device name without the /dev/ prefix.
func (m *Member) Name() string {
	return path.Base(m.BlockDevice)
}

// ArrayState is a snapshot of one md array. Optional sysfs attributes are
// nil when the kernel does not expose them for this array.
type ArrayState struct {
	Name       string  `json:"name"`
	ArrayState string  `json:"array_state"`
	Level      string  `json:"level"`
	Degraded   *bool   `json:"degraded"`
	Suspended  *bool   `json:"suspended"`
	RaidDisks  int     `json:"raid_disks"`
	SyncAction *string `json:"sync_action"`

	SectorsSynced *uint64  `json:"sectors_synced,omitempty"`
	SectorsTotal  *uint64  `json:"sectors_total,omitempty"`
	SyncCompleted *float64 `json:"sync_completed"`

	// Active holds every slot 0..RaidDisks-1; a nil member is an unfilled slot.
	Active  map[int]*Member    `json:"active"`
	Spares  map[string]*Member `json:"spares"`
	Failed  map[string]*Member `json:"failed"`
	Members []string           `json:"members"`
}

// Array state values as reported by md/array_state.
const (
	StateClear        = "clear"
	StateInactive     = "inactive"
	StateReadonly     = "readonly"
	StateReadAuto     = "read-auto"
	StateClean        = "clean"
	StateActive       = "active"
	StateActiveIdle   = "active-idle"
	StateWritePending = "write-pending"
)

// Member state values as reported by md/dev-*/state.
const (
	MemberInSync      = "in_sync"
	MemberWriteMostly = "writemostly"
	MemberSpare       = "spare"
	MemberFaulty      = "faulty"
)

// Sync actions as reported by md/sync_action.
const (
	SyncIdle    = "idle"
	SyncResync  = "resync"
	SyncRecover = "recover"
	SyncCheck   = "check"
	SyncRepair  = "repair"
)

func ptr[T any](v T) *T {
	return &v
}
