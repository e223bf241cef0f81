// Package setups holds the compile-time channel plans. The plan in use is
// picked by build tag.
package setups

import "apmd-go/drivers/apmd"

// ChannelPlan is how one PMD instance is brought up at boot.
type ChannelPlan struct {
	ID         apmd.ChannelID
	Phases     apmd.PhaseCount
	Complement bool
}

type Plan struct {
	Name     string
	Device   string // embedded config key
	SysclkHz uint32
	Channels []ChannelPlan
}

// Channel returns the plan entry for id, or a zero-phase entry.
func (p Plan) Channel(id apmd.ChannelID) ChannelPlan {
	for _, c := range p.Channels {
		if c.ID == id {
			return c
		}
	}
	return ChannelPlan{ID: id}
}

// Active returns the entries with at least one phase.
func (p Plan) Active() []ChannelPlan {
	var out []ChannelPlan
	for _, c := range p.Channels {
		if c.Phases > 0 {
			out = append(out, c)
		}
	}
	return out
}
