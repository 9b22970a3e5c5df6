package delegation

import (
	"council-delegation/internal/logger"

	"github.com/moznion/go-optional"
)

// Resolve walks every delegation pointer in reg and links the records into a
// forest. Each account is walked at most once; chains that merge into an
// already processed account stop there. Accounts on a cycle are marked
// Broken. An account whose target is not in the registry keeps no edge and
// is marked Incomplete.
func Resolve(reg *Registry, log *logger.Logger) {
	processed := make(map[string]bool, reg.Len())
	for _, rec := range reg.All() {
		if processed[rec.ID] || rec.Pointer.Kind != PointerTarget {
			continue
		}
		for _, r := range walk(reg, rec, processed, log) {
			processed[r.ID] = true
		}
	}
}

// walk follows the chain from start and returns every record it visited.
func walk(reg *Registry, start *AccountRecord, processed map[string]bool, log *logger.Logger) []*AccountRecord {
	chain := []*AccountRecord{start}
	pos := map[string]int{start.ID: 0}

	for cur := start; ; {
		targetID := cur.Pointer.Target
		target, ok := reg.Get(targetID)
		if !ok {
			cur.Incomplete = true
			log.Debugf("%s -> %s: target unresolvable (%v), chain stops", cur.ID, targetID, reg.Unresolvable(targetID))
			return chain
		}
		if i, seen := pos[targetID]; seen {
			for _, r := range chain[i:] {
				r.Broken = true
			}
			log.Debugf("%s -> %s: cycle of %d accounts, marked broken", cur.ID, targetID, len(chain)-i)
			return chain
		}

		cur.DelegateTo = optional.Some(targetID)
		target.DelegatedFrom = append(target.DelegatedFrom, cur.ID)
		log.Debugf("%s -> %s", cur.ID, targetID)

		if processed[targetID] || target.Pointer.Kind != PointerTarget {
			return chain
		}
		pos[targetID] = len(chain)
		chain = append(chain, target)
		cur = target
	}
}
