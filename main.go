package main

import (
	"context"
	"time"

	"apmd-go/internal/app"
	"apmd-go/internal/platform"
	"apmd-go/internal/setups"
)

func main() {
	time.Sleep(platform.BootDelay)

	board := platform.Boot()
	plan := setups.Selected
	println("boot", board.Name, plan.Name)

	a := app.New(board, plan)
	a.Start(context.Background(), make([]byte, 64))

	// Periodic heartbeat.
	tick := time.NewTicker(10 * time.Second)
	defer tick.Stop()
	for t := range tick.C {
		println(t.Format("15:04:05"), "Heartbeat")
	}
}
