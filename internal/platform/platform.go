// Package platform boots the board support for the selected target: the
// clock and pin layer, the three PMD register blocks and the console port.
package platform

import (
	"apmd-go/drivers/apmd"
	"apmd-go/services/link"
)

// Board is what the firmware needs from the target.
type Board struct {
	Name     string
	Platform apmd.Platform
	Blocks   [3]apmd.Block
	Wait     apmd.WaitFunc
	Console  link.Port
}

// DriverConfig returns the apmd configuration for the board.
func (b *Board) DriverConfig() apmd.Config {
	return apmd.Config{Platform: b.Platform, Blocks: b.Blocks, Wait: b.Wait}
}

func simBlocks() (out [3]apmd.Block) {
	for i := range out {
		out[i] = apmd.NewSim()
	}
	return out
}
