package group

// SelectDonor picks a donor for the joining node at joinerIdx, preferring a
// SYNCED node over a merely JOINED one. The joiner itself is never
// selected. Ties are broken by lowest index for determinism across
// members.
func SelectDonor(nodes []Node, joinerIdx int) (int, error) {
	if idx := findNodeByStatus(nodes, StatusSynced, joinerIdx); idx >= 0 {
		return idx, nil
	}
	if idx := findNodeByStatus(nodes, StatusJoined, joinerIdx); idx >= 0 {
		return idx, nil
	}
	return -1, newError(EAGAIN, "no donor available for joiner %d", joinerIdx)
}

func findNodeByStatus(nodes []Node, status Status, excludeIdx int) int {
	for idx, n := range nodes {
		if idx == excludeIdx {
			continue
		}
		if n.Status == status {
			return idx
		}
	}
	return -1
}
