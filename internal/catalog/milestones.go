package catalog

// TierFor advances a revealed tier through the milestone table: starting from
// current, the tier steps forward while the player's credits clear the next
// unmet threshold. It never returns less than current, so a player whose
// credits later drop keeps everything already revealed.
func (c *Catalog) TierFor(credits int64, current int) int {
	tier := current
	if tier < 1 {
		tier = 1
	}
	for _, m := range c.Milestones {
		if m.Tier <= tier {
			continue
		}
		if credits < m.Threshold {
			break
		}
		tier = m.Tier
	}
	return tier
}
