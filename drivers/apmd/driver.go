package apmd

// Config wires a Driver to its chip support layer.
type Config struct {
	Platform Platform
	Blocks   [numChannels]Block // indexed by ChannelID.Index()
	Wait     WaitFunc           // nil selects Wait
}

// Driver owns every A-PMD instance on the chip.
type Driver struct {
	ch [numChannels]*Channel
}

// New builds a driver. It panics if the platform or any block is missing,
// since both are fixed by the board at build time.
func New(cfg Config) *Driver {
	if cfg.Platform == nil {
		panic("apmd: nil platform")
	}
	wait := cfg.Wait
	if wait == nil {
		wait = Wait
	}
	d := &Driver{}
	for _, id := range Channels() {
		b := cfg.Blocks[id.n]
		if b == nil {
			panic("apmd: nil block for " + id.String())
		}
		d.ch[id.n] = newChannel(id, b, cfg.Platform, wait)
	}
	return d
}

// Channel returns the channel for id.
func (d *Driver) Channel(id ChannelID) *Channel { return d.ch[id.n] }

// InitChannel binds, configures and disarms a channel. See Channel.Init.
func (d *Driver) InitChannel(id ChannelID, n PhaseCount, comp bool) error {
	return d.ch[id.n].Init(n, comp)
}

func (d *Driver) SetCarrierFrequency(id ChannelID, rate uint32) {
	d.ch[id.n].SetCarrierFrequency(rate)
}

func (d *Driver) CarrierFrequency(id ChannelID) uint32 {
	return d.ch[id.n].CarrierFrequency()
}

func (d *Driver) SetDuty(id ChannelID, p Phase, v uint32) {
	d.ch[id.n].SetDuty(p, v)
}

func (d *Driver) Duty(id ChannelID, p Phase) uint32 {
	return d.ch[id.n].Duty(p)
}

func (d *Driver) ProtectionStatus(id ChannelID, p Path) Status {
	return d.ch[id.n].Status(p)
}

func (d *Driver) ReleaseProtection(id ChannelID, p Path) error {
	return d.ch[id.n].Release(p)
}
