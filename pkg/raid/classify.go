package raid

import "github.com/addisonbair/mdraid-sidecars/pkg/log"

// Classify sorts members into the active, spare and failed sets of st, in
// discovery order:
//
//   - state "spare" goes to Spares;
//   - no slot, or state "faulty", goes to Failed;
//   - anything else takes its slot in Active.
//
// Every slot below RaidDisks is present in Active; unfilled slots stay nil.
// Two members claiming one slot is not expected; the later one wins.
func Classify(st *ArrayState, members []*Member) {
	st.Active = make(map[int]*Member, st.RaidDisks)
	st.Spares = make(map[string]*Member)
	st.Failed = make(map[string]*Member)
	st.Members = make([]string, 0, len(members))

	for i := 0; i < st.RaidDisks; i++ {
		st.Active[i] = nil
	}

	for _, m := range members {
		st.Members = append(st.Members, m.BlockDevice)
		switch {
		case m.State == MemberSpare:
			st.Spares[m.BlockDevice] = m
		case m.Slot == nil || m.State == MemberFaulty:
			st.Failed[m.BlockDevice] = m
		default:
			if prev := st.Active[*m.Slot]; prev != nil {
				log.Debug().
					Str("array", st.Name).
					Int("slot", *m.Slot).
					Str("previous", prev.BlockDevice).
					Str("member", m.BlockDevice).
					Msg("Slot claimed twice, keeping the later member")
			}
			st.Active[*m.Slot] = m
		}
	}
}
