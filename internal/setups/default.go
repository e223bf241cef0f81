//go:build !bench

package setups

import "apmd-go/drivers/apmd"

// Selected drives PMD0 as a two-phase complementary bridge and PMD2 as a
// single upper-only phase. PMD1 is left unbound.
var Selected = Plan{
	Name:     "tmpm4k_default",
	Device:   "tmpm4k",
	SysclkHz: 160_000_000,
	Channels: []ChannelPlan{
		{ID: apmd.PMD0, Phases: 2, Complement: true},
		{ID: apmd.PMD1, Phases: 0},
		{ID: apmd.PMD2, Phases: 1, Complement: false},
	},
}
