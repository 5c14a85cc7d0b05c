/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guess

// Barrier tracks which members of a fixed participant set have signaled.
// It fires exactly once per Reset, on the signal that completes the set.
// Barrier is not safe for concurrent use; Room guards it with its mutex.
type Barrier[K comparable] struct {
	members  map[K]struct{}
	signaled map[K]struct{}
	fired    bool
}

func NewBarrier[K comparable](members ...K) *Barrier[K] {
	b := &Barrier[K]{}
	b.Reset(members...)

	return b
}

// Reset replaces the participant set and clears all signals.
func (b *Barrier[K]) Reset(members ...K) {
	b.members = make(map[K]struct{}, len(members))
	for _, m := range members {
		b.members[m] = struct{}{}
	}
	b.signaled = make(map[K]struct{}, len(members))
	b.fired = false
}

// Signal records id. It reports whether this call fired the barrier.
// Signals from outside the participant set return ErrNotParticipant.
func (b *Barrier[K]) Signal(id K) (bool, error) {
	if _, ok := b.members[id]; !ok {
		return false, ErrNotParticipant
	}

	b.signaled[id] = struct{}{}

	if b.fired || len(b.members) == 0 || len(b.signaled) < len(b.members) {
		return false, nil
	}

	b.fired = true

	return true, nil
}

// Remove drops id from the participant set. A pending barrier is not
// re-evaluated; the next Signal will see the smaller set.
func (b *Barrier[K]) Remove(id K) {
	delete(b.members, id)
	delete(b.signaled, id)
}

func (b *Barrier[K]) Has(id K) bool {
	_, ok := b.members[id]

	return ok
}

func (b *Barrier[K]) Signaled(id K) bool {
	_, ok := b.signaled[id]

	return ok
}

// Count is the number of participants that have signaled.
func (b *Barrier[K]) Count() int { return len(b.signaled) }

// Size is the number of participants.
func (b *Barrier[K]) Size() int { return len(b.members) }

func (b *Barrier[K]) Fired() bool { return b.fired }
