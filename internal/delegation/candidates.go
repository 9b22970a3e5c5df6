package delegation

// Candidates selects the roots that are verified and ready for the council,
// mapped to their aggregated power.
func Candidates(reg *Registry, f Forest) map[string]uint64 {
	out := make(map[string]uint64)
	for _, n := range f.Roots {
		rec, ok := reg.Get(n.ID)
		if !ok || !rec.Verified || !rec.Ready {
			continue
		}
		out[n.ID] = n.Total()
	}
	return out
}
