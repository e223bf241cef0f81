package apmd

// fakePlatform records clock and pin calls and tracks the resulting pin
// state.
type fakePlatform struct {
	clocks   []ClockDomain
	pins     map[Pin]pinState
	calls    int
	clockSet map[ClockDomain]bool
}

type pinState struct {
	output   bool
	fn       uint8
	fnOn     bool
	up, down bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{pins: map[Pin]pinState{}, clockSet: map[ClockDomain]bool{}}
}

func (f *fakePlatform) EnableClock(d ClockDomain) {
	f.clocks = append(f.clocks, d)
	f.clockSet[d] = true
}

func (f *fakePlatform) SetPinDirection(p Pin, output bool) {
	st := f.pins[p]
	st.output = output
	f.pins[p] = st
	f.calls++
}

func (f *fakePlatform) SetPinFunction(p Pin, fn uint8, enable bool) {
	st := f.pins[p]
	st.fn, st.fnOn = fn, enable
	f.pins[p] = st
	f.calls++
}

func (f *fakePlatform) SetPinPullResistors(p Pin, up, down bool) {
	st := f.pins[p]
	st.up, st.down = up, down
	f.pins[p] = st
	f.calls++
}

func (f *fakePlatform) driving(p Pin) bool {
	st := f.pins[p]
	return st.output && st.fnOn
}

// gatedBlock fails the test through report when a register is written
// before the PMD clock of its channel is enabled.
type gatedBlock struct {
	Block
	pl     *fakePlatform
	clock  ClockDomain
	report func(r Reg)
}

func (g *gatedBlock) Set(r Reg, v uint32) {
	if !g.pl.clockSet[g.clock] {
		g.report(r)
	}
	g.Block.Set(r, v)
}

// keyMangler rewrites the second release key, modelling a broken unlock.
type keyMangler struct {
	*Sim
	to uint32
}

func (k *keyMangler) Set(r Reg, v uint32) {
	if (r == regEMGREL || r == regOVVREL) && v == releaseKey2 {
		v = k.to
	}
	k.Sim.Set(r, v)
}

func noWait(uint32) {}

func newTestDriver() (*Driver, *fakePlatform, [numChannels]*Sim) {
	pl := newFakePlatform()
	var sims [numChannels]*Sim
	var blocks [numChannels]Block
	for i := range sims {
		sims[i] = NewSim()
		blocks[i] = sims[i]
	}
	d := New(Config{Platform: pl, Blocks: blocks, Wait: noWait})
	return d, pl, sims
}
