package config

// Embedded configuration, keyed by device ID (the value placed in ctx under
// CtxDeviceKey).
//
// pmd rates assume a 160 MHz system clock: 2097 is about 20 kHz and a dead
// time of 40 ticks is 1 us.

const cfgTMPM4K = `{
  "monitor": {
    "interval_ms": 250,
    "auto_release_ms": 0
  },
  "pmd": {
    "0": {
      "rate": 2097,
      "deadtime": 40,
      "duty": 0,
      "emg": {"active_high": false, "filter": 15, "inhibit": true}
    },
    "2": {
      "rate": 2097,
      "deadtime": 40,
      "duty": 0
    }
  }
}`

const cfgBench = `{
  "monitor": {
    "interval_ms": 1000,
    "auto_release_ms": 0
  },
  "pmd": {
    "0": {"rate": 1049, "deadtime": 80, "duty": 250},
    "2": {"rate": 1049, "deadtime": 80, "duty": 500}
  }
}`

var embeddedConfigs = map[string][]byte{
	"tmpm4k": []byte(cfgTMPM4K),
	"bench":  []byte(cfgBench),
	"host":   []byte(cfgBench),
}
