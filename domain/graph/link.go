package graph

// Link is a directed edge between two node ids
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// DedupeLinks collapses links with the same (source, target) pair, keeping the
// first occurrence and preserving order.
func DedupeLinks(links []Link) []Link {
	seen := make(map[Link]struct{}, len(links))
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
