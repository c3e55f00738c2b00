package raid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/addisonbair/mdraid-sidecars/pkg/status"
)

func member(dev string, slot int, state string) *Member {
	return &Member{
		Slot:           ptr(slot),
		BlockDevice:    "/dev/" + dev,
		State:          state,
		SlotLinkExists: true,
	}
}

// healthy builds a classified snapshot with every slot in_sync.
func healthy(name, arrayState string, disks int) *ArrayState {
	st := &ArrayState{Name: name, ArrayState: arrayState, Level: "raid1", RaidDisks: disks, Degraded: ptr(false)}
	var members []*Member
	for i := 0; i < disks; i++ {
		members = append(members, member(fmt.Sprintf("sd%c1", 'a'+i), i, MemberInSync))
	}
	Classify(st, members)
	return st
}

func TestEvaluateBaseline(t *testing.T) {
	tests := []struct {
		state string
		want  status.Severity
	}{
		{StateReadonly, status.OK},
		{StateReadAuto, status.OK},
		{StateClean, status.OK},
		{StateActive, status.OK},
		{StateActiveIdle, status.OK},
		{StateWritePending, status.Warning},
		{StateClear, status.Critical},
		{StateInactive, status.Critical},
		{"suspended", status.Unknown},
		{"", status.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			sev, msg := Evaluate(healthy("md0", tt.state, 2), false)
			assert.Equal(t, tt.want, sev)
			assert.Equal(t, "md0 - "+tt.state, msg)
		})
	}
}

func TestEvaluateCleanArray(t *testing.T) {
	sev, msg := Evaluate(healthy("md0", StateClean, 2), false)
	assert.Equal(t, status.OK, sev)
	assert.Equal(t, "md0 - clean", msg)
}

func TestEvaluateWritemostlyIsHealthy(t *testing.T) {
	st := &ArrayState{Name: "md0", ArrayState: StateActive, RaidDisks: 2}
	Classify(st, []*Member{member("sda1", 0, MemberInSync), member("sdb1", 1, MemberWriteMostly)})

	sev, msg := Evaluate(st, false)
	assert.Equal(t, status.OK, sev)
	assert.Equal(t, "md0 - active", msg)
}

func TestEvaluateDegraded(t *testing.T) {
	tests := []struct {
		name     string
		action   *string
		progress *float64
		wantSev  status.Severity
		wantMsg  string
	}{
		{
			name:     "resync with progress",
			action:   ptr(SyncResync),
			progress: ptr(0.423),
			wantSev:  status.Warning,
			wantMsg:  "md0 - active, degraded, resync 42.3%",
		},
		{
			name:    "recover",
			action:  ptr(SyncRecover),
			wantSev: status.Warning,
			wantMsg: "md0 - active, degraded, recover",
		},
		{
			name:    "check",
			action:  ptr(SyncCheck),
			wantSev: status.Warning,
			wantMsg: "md0 - active, degraded, check",
		},
		{
			name:    "repair",
			action:  ptr(SyncRepair),
			wantSev: status.Warning,
			wantMsg: "md0 - active, degraded, repair",
		},
		{
			name:    "idle",
			action:  ptr(SyncIdle),
			wantSev: status.Critical,
			wantMsg: "md0 - active, degraded, idle",
		},
		{
			name:    "no sync action",
			wantSev: status.Critical,
			wantMsg: "md0 - active, degraded, unknown sync action",
		},
		{
			name:     "unrecognised action",
			action:   ptr("reshape"),
			progress: ptr(0.05),
			wantSev:  status.Unknown,
			wantMsg:  "md0 - active, degraded, sync reshape 5.0%",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := healthy("md0", StateActive, 2)
			st.Degraded = ptr(true)
			st.SyncAction = tt.action
			st.SyncCompleted = tt.progress

			sev, msg := Evaluate(st, false)
			assert.Equal(t, tt.wantSev, sev)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestEvaluateEmptySlot(t *testing.T) {
	st := &ArrayState{Name: "md0", ArrayState: StateActive, RaidDisks: 2, Degraded: ptr(true)}
	Classify(st, []*Member{member("sda1", 0, MemberInSync)})

	sev, msg := Evaluate(st, false)
	assert.Equal(t, status.Critical, sev)
	assert.Contains(t, msg, "raid_device[1] fails")
	assert.Equal(t, "md0 - active, degraded, unknown sync action, raid_device[1] fails", msg)
}

func TestEvaluateEmptySlotWhileRecovering(t *testing.T) {
	st := &ArrayState{Name: "md0", ArrayState: StateActive, RaidDisks: 2, SyncAction: ptr(SyncRecover)}
	Classify(st, []*Member{member("sda1", 0, MemberInSync)})

	sev, msg := Evaluate(st, false)
	assert.Equal(t, status.Warning, sev)
	assert.Equal(t, "md0 - active, raid_device[1] fails", msg)
}

func TestEvaluateEmptySlotNotDegraded(t *testing.T) {
	st := &ArrayState{Name: "md0", ArrayState: StateClean, RaidDisks: 2}
	Classify(st, []*Member{member("sdb1", 1, MemberInSync)})

	sev, msg := Evaluate(st, false)
	assert.Equal(t, status.Critical, sev)
	assert.Equal(t, "md0 - clean, raid_device[0] fails", msg)
}

func TestEvaluateMemberState(t *testing.T) {
	tests := []struct {
		name     string
		linkOK   bool
		wantSev  status.Severity
		wantFrag string
	}{
		{name: "slot link present", linkOK: true, wantSev: status.OK, wantFrag: "raid_device[1]=sdb1 want_replacement"},
		{name: "slot link gone", linkOK: false, wantSev: status.Critical, wantFrag: "raid_device[1]=sdb1 want_replacement failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			odd := member("sdb1", 1, "want_replacement")
			odd.SlotLinkExists = tt.linkOK
			st := &ArrayState{Name: "md0", ArrayState: StateClean, RaidDisks: 2}
			Classify(st, []*Member{member("sda1", 0, MemberInSync), odd})

			sev, msg := Evaluate(st, false)
			assert.Equal(t, tt.wantSev, sev)
			assert.Equal(t, "md0 - clean, "+tt.wantFrag, msg)
		})
	}
}

func TestEvaluateSpares(t *testing.T) {
	st := healthy("md0", StateClean, 2)
	spare := &Member{BlockDevice: "/dev/sdc1", State: MemberSpare}
	st.Spares[spare.BlockDevice] = spare
	st.Members = append(st.Members, spare.BlockDevice)

	sev, msg := Evaluate(st, false)
	assert.Equal(t, status.Warning, sev)
	assert.Equal(t, "md0 - clean, spare sdc1", msg)

	sev, msg = Evaluate(st, true)
	assert.Equal(t, status.OK, sev)
	assert.Equal(t, "md0 - clean", msg)
}

func TestEvaluateFailedMembers(t *testing.T) {
	st := &ArrayState{Name: "md0", ArrayState: StateClean, RaidDisks: 2}
	Classify(st, []*Member{
		member("sda1", 0, MemberInSync),
		member("sdb1", 1, MemberInSync),
		member("sdd1", 2, MemberFaulty),
		{BlockDevice: "/dev/sdc1", State: MemberInSync},
	})

	sev, msg := Evaluate(st, true)
	assert.Equal(t, status.Critical, sev)
	assert.Equal(t, "md0 - clean, failed sdd1 sdc1", msg)
}

func TestEvaluateWritePendingNeverLowered(t *testing.T) {
	st := healthy("md0", StateWritePending, 2)
	st.Degraded = ptr(true)
	st.SyncAction = ptr(SyncResync)

	sev, _ := Evaluate(st, true)
	assert.GreaterOrEqual(t, sev, status.Warning)
}

func TestEvaluateInactiveStaysCritical(t *testing.T) {
	st := healthy("md0", StateInactive, 2)
	st.Degraded = ptr(true)
	st.SyncAction = ptr(SyncRecover)

	sev, msg := Evaluate(st, false)
	assert.Equal(t, status.Critical, sev)
	assert.Equal(t, "md0 - inactive, degraded, recover", msg)
}

func TestEvaluateFragmentOrder(t *testing.T) {
	st := &ArrayState{
		Name: "md3", ArrayState: StateActive, RaidDisks: 3,
		Degraded: ptr(true), SyncAction: ptr(SyncRecover), SyncCompleted: ptr(0.5),
	}
	Classify(st, []*Member{
		member("sda1", 0, MemberInSync),
		{BlockDevice: "/dev/sde1", State: MemberSpare},
		member("sdc1", 2, "in_sync,blocked"),
		member("sdf1", 3, MemberFaulty),
	})

	sev, msg := Evaluate(st, false)
	assert.Equal(t, status.Critical, sev)
	assert.Equal(t,
		"md3 - active, spare sde1, degraded, recover 50.0%, raid_device[1] fails, raid_device[2]=sdc1 in_sync,blocked, failed sdf1",
		msg)
}

func TestClassifyLastSeenWins(t *testing.T) {
	st := &ArrayState{Name: "md0", RaidDisks: 1}
	Classify(st, []*Member{member("sda1", 0, MemberInSync), member("sdb1", 0, MemberInSync)})

	assert.Equal(t, "/dev/sdb1", st.Active[0].BlockDevice)
	assert.Equal(t, []string{"/dev/sda1", "/dev/sdb1"}, st.Members)
}

func TestClassifyPartition(t *testing.T) {
	states := []string{MemberInSync, MemberSpare, MemberFaulty, MemberWriteMostly, "blocked"}
	for n := 0; n < 40; n++ {
		var members []*Member
		for i := 0; i < n%7; i++ {
			m := &Member{BlockDevice: fmt.Sprintf("/dev/sd%c", 'a'+i), State: states[(n+i)%len(states)]}
			if (n+i)%3 != 0 {
				m.Slot = ptr(i)
			}
			members = append(members, m)
		}
		st := &ArrayState{Name: "md0", RaidDisks: n % 5}
		Classify(st, members)

		seen := map[string]int{}
		for _, m := range st.Active {
			if m != nil {
				seen[m.BlockDevice]++
			}
		}
		for dev := range st.Spares {
			seen[dev]++
		}
		for dev := range st.Failed {
			seen[dev]++
		}
		assert.Len(t, st.Members, len(members))
		assert.Len(t, seen, len(members))
		for _, dev := range st.Members {
			assert.Equal(t, 1, seen[dev], "member %s", dev)
		}
		for slot := 0; slot < st.RaidDisks; slot++ {
			assert.Contains(t, st.Active, slot)
		}
	}
}
