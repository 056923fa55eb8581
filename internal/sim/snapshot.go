package sim

import (
	"fmt"

	"github.com/l1jgo/skirmish/internal/core/ecs"
	"github.com/l1jgo/skirmish/internal/net/packet"
	"github.com/l1jgo/skirmish/internal/unit"
)

// snapshotMagic tags a session snapshot blob.
const snapshotMagic = 0x534b // "SK"

// Snapshot serialises every registered unit with its persistent record.
//
//	[H magic][L tick][D count] { [L id][D len][record] } * count
func (s *Session) Snapshot() (data []byte, count int) {
	w := packet.NewWriter()
	w.WriteH(snapshotMagic)
	w.WriteL(s.tick)
	count = s.Count()
	w.WriteD(int32(count))
	s.Units(func(u *unit.Unit) {
		rec := packet.NewWriter()
		u.Write(rec)
		w.WriteL(uint64(u.ID))
		w.WriteD(int32(rec.Len()))
		w.WriteBytes(rec.Bytes())
	})
	return w.Bytes(), count
}

// Restore loads a snapshot into an empty host session. A record that fails
// to decode is skipped and reported; the rest still load.
func (s *Session) Restore(data []byte) (loaded int, err error) {
	if s.Count() > 0 {
		return 0, fmt.Errorf("sim: restore into a session with %d units", s.Count())
	}
	r := packet.NewReader(data)
	if r.ReadH() != snapshotMagic {
		return 0, fmt.Errorf("sim: %w: bad snapshot header", unit.ErrCorrupt)
	}
	tick := r.ReadL()
	n := int(r.ReadD())
	if r.Err() != nil {
		return 0, fmt.Errorf("sim: %w: %v", unit.ErrCorrupt, r.Err())
	}
	var firstErr error
	for i := 0; i < n; i++ {
		id := ecs.EntityID(r.ReadL())
		size := int(r.ReadD())
		rec := r.ReadBytes(size)
		if r.Err() != nil {
			return loaded, fmt.Errorf("sim: %w: record %d: %v", unit.ErrCorrupt, i, r.Err())
		}
		u, rerr := unit.Read(s.ctx, packet.NewReader(rec), id)
		if rerr != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("sim: unit %d: %w", id, rerr)
			}
			continue
		}
		if !s.world.Pool().Claim(id) {
			continue
		}
		s.register(u)
		loaded++
	}
	s.tick = tick
	return loaded, firstErr
}
