package raid

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/addisonbair/mdraid-sidecars/pkg/status"
)

// baseline maps array_state to its starting severity; unlisted states are
// Unknown.
var baseline = map[string]status.Severity{
	StateReadonly:     status.OK,
	StateReadAuto:     status.OK,
	StateClean:        status.OK,
	StateActive:       status.OK,
	StateActiveIdle:   status.OK,
	StateWritePending: status.Warning,
	StateClear:        status.Critical,
	StateInactive:     status.Critical,
}

// resyncing lists the sync actions that are actively repairing an array.
var resyncing = map[string]bool{
	SyncResync:  true,
	SyncRecover: true,
	SyncCheck:   true,
	SyncRepair:  true,
}

// Evaluate maps one array snapshot to a severity and a message of the form
// "md0 - clean[, fragment...]". Each rule can only raise the severity.
func Evaluate(st *ArrayState, spareOK bool) (status.Severity, string) {
	sev, ok := baseline[st.ArrayState]
	if !ok {
		sev = status.Unknown
	}
	parts := []string{fmt.Sprintf("%s - %s", st.Name, st.ArrayState)}

	if !spareOK && len(st.Spares) > 0 {
		sev = status.Max(sev, status.Warning)
		parts = append(parts, "spare "+strings.Join(bucketNames(st, st.Spares), " "))
	}

	syncing := st.SyncAction != nil && resyncing[*st.SyncAction]

	if st.Degraded != nil && *st.Degraded {
		parts = append(parts, "degraded")

		var action string
		switch {
		case st.SyncAction == nil:
			sev = status.Max(sev, status.Critical)
			action = "unknown sync action"
		case *st.SyncAction == SyncIdle:
			sev = status.Max(sev, status.Critical)
			action = SyncIdle
		case syncing:
			sev = status.Max(sev, status.Warning)
			action = *st.SyncAction
		default:
			sev = status.Max(sev, status.Unknown)
			action = "sync " + *st.SyncAction
		}
		if st.SyncCompleted != nil {
			action += fmt.Sprintf(" %.1f%%", *st.SyncCompleted*100)
		}
		parts = append(parts, action)
	}

	slots := make([]int, 0, len(st.Active))
	for slot := range st.Active {
		slots = append(slots, slot)
	}
	sort.Ints(slots)

	for _, slot := range slots {
		m := st.Active[slot]
		if m == nil {
			if syncing {
				sev = status.Max(sev, status.Warning)
			} else {
				sev = status.Max(sev, status.Critical)
			}
			parts = append(parts, fmt.Sprintf("raid_device[%d] fails", slot))
			continue
		}
		if m.State == MemberInSync || m.State == MemberWriteMostly {
			continue
		}
		part := fmt.Sprintf("raid_device[%d]=%s %s", slot, m.Name(), m.State)
		if !m.SlotLinkExists {
			part += " failed"
			sev = status.Max(sev, status.Critical)
		}
		parts = append(parts, part)
	}

	if len(st.Failed) > 0 {
		sev = status.Max(sev, status.Critical)
		parts = append(parts, "failed "+strings.Join(bucketNames(st, st.Failed), " "))
	}

	return sev, strings.Join(parts, ", ")
}

// bucketNames lists the device names of a bucket in discovery order.
func bucketNames(st *ArrayState, bucket map[string]*Member) []string {
	names := make([]string, 0, len(bucket))
	seen := make(map[string]bool, len(bucket))
	for _, dev := range st.Members {
		if _, ok := bucket[dev]; ok && !seen[dev] {
			seen[dev] = true
			names = append(names, path.Base(dev))
		}
	}
	// Buckets built without Classify have no discovery order.
	if len(names) < len(bucket) {
		var rest []string
		for dev := range bucket {
			if !seen[dev] {
				rest = append(rest, path.Base(dev))
			}
		}
		sort.Strings(rest)
		names = append(names, rest...)
	}
	return names
}
