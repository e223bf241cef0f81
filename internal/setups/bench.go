//go:build bench

package setups

import "apmd-go/drivers/apmd"

// Selected is the bench plan: all three phases on PMD0 and one on PMD2,
// run against simulated blocks.
var Selected = Plan{
	Name:     "bench",
	Device:   "bench",
	SysclkHz: 160_000_000,
	Channels: []ChannelPlan{
		{ID: apmd.PMD0, Phases: 3, Complement: true},
		{ID: apmd.PMD2, Phases: 1},
	},
}
