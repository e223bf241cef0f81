package apmd

import "sync"

// Channel is one A-PMD instance and its configuration state.
type Channel struct {
	mu   sync.Mutex
	id   ChannelID
	b    Block
	pl   Platform
	wait WaitFunc

	phases     PhaseCount
	comp       bool
	configured bool
	prot       [2]ProtState
	armed      [2]ProtectionConfig
	isArmed    [2]bool
}

func newChannel(id ChannelID, b Block, pl Platform, wait WaitFunc) *Channel {
	return &Channel{id: id, b: b, pl: pl, wait: wait}
}

func (c *Channel) ID() ChannelID { return c.id }

// PhaseCount reports the configured phase count and complement flag.
func (c *Channel) PhaseCount() (PhaseCount, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phases, c.comp
}

// Configured reports whether Init has completed with at least one phase.
func (c *Channel) Configured() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configured
}

func (c *Channel) enabled() bool { return c.b.Get(regMDEN)&mdenPWMEN != 0 }

// Enabled reports the PWMEN bit.
func (c *Channel) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled()
}

// Init binds pins and clocks, programs the default waveform and runs the
// protection disable sequence. PWMEN is left off.
//
// A latch that survives the init release is returned as ErrStillLatched;
// the channel is still marked configured so the caller can retry Release.
func (c *Channel) Init(n PhaseCount, comp bool) error {
	if !n.Valid() {
		return ErrInvalidPhaseCount
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.configured && c.enabled() {
		return ErrEnabled
	}

	prev := c.phases
	c.phases, c.comp = n, comp
	c.configured = false
	c.isArmed = [2]bool{}
	if n == 0 {
		if prev != 0 {
			unbind(c.pl, c.b, c.id)
		}
		return nil
	}

	bind(c.pl, c.b, c.id, n, comp)
	if err := c.configureWaveform(DefaultWaveform()); err != nil {
		return err
	}
	c.configured = true
	return c.disableProtection()
}

// Enable sets PWMEN. It refuses when the channel is not configured or a
// protection latch is set.
func (c *Channel) Enable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.configured {
		return ErrNotConfigured
	}
	if c.latched(EMG) || c.latched(OVV) {
		return ErrTripped
	}
	c.b.Set(regMDEN, mdenPWMEN)
	return nil
}

// Disable clears PWMEN.
func (c *Channel) Disable() {
	c.mu.Lock()
	c.b.Set(regMDEN, 0)
	c.mu.Unlock()
}
