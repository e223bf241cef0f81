package main

import (
	"errors"
	"strconv"
	"strings"

	"apmd-go/x/jsonkey"

	"github.com/google/shlex"
)

var errUsage = errors.New("usage")

// usage lines, keyed by op
var usage = map[string]string{
	"init":     "init <ch> <phases> [comp]",
	"duty":     "duty <ch> <U|V|W> <value>",
	"pm":       "pm <ch> <U|V|W> <permille>",
	"freq":     "freq <ch> <rate>",
	"hz":       "hz <ch> <hz>",
	"deadtime": "deadtime <ch> <ticks> | deadtime <ch> <n>ns",
	"enable":   "enable <ch>",
	"disable":  "disable <ch>",
	"status":   "status <ch>",
	"regs":     "regs <ch>",
	"release":  "release <ch> <emg|ovv>",
	"arm":      "arm <ch> <emg|ovv> [active_high] [inhibit] [adin0] [adin1] [filter=N] [response=N]",
}

// translate turns one REPL line into a request object. A line that already
// starts with '{' is sent as is.
func translate(line string) ([]byte, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "{") {
		if !jsonkey.Object([]byte(line)) {
			return nil, errors.New("not a JSON object")
		}
		return []byte(line), nil
	}
	args, err := shlex.Split(line)
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return nil, errUsage
	}
	op := args[0]
	if _, ok := usage[op]; !ok {
		return nil, errors.New("unknown command " + strconv.Quote(op))
	}
	ch, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, errors.New("bad channel " + strconv.Quote(args[1]))
	}
	rest := args[2:]

	w := jsonkey.NewWriter(make([]byte, 0, 128))
	switch op {
	case "init":
		if len(rest) < 1 {
			return nil, errUsage
		}
		n, err := num(rest[0])
		if err != nil {
			return nil, err
		}
		w.Str("op", op).Int("ch", ch).Uint("phases", n).Bool("comp", len(rest) > 1 && rest[1] == "comp")
	case "duty", "pm":
		if len(rest) != 2 {
			return nil, errUsage
		}
		v, err := num(rest[1])
		if err != nil {
			return nil, err
		}
		key := "value"
		if op == "pm" {
			key = "permille"
		}
		w.Str("op", "duty").Int("ch", ch).Str("phase", strings.ToUpper(rest[0])).Uint(key, v)
	case "freq", "hz":
		if len(rest) != 1 {
			return nil, errUsage
		}
		v, err := num(rest[0])
		if err != nil {
			return nil, err
		}
		w.Str("op", op).Int("ch", ch).Uint("value", v)
	case "deadtime":
		if len(rest) != 1 {
			return nil, errUsage
		}
		key, s := "ticks", rest[0]
		if strings.HasSuffix(s, "ns") {
			key, s = "ns", strings.TrimSuffix(s, "ns")
		}
		v, err := num(s)
		if err != nil {
			return nil, err
		}
		w.Str("op", op).Int("ch", ch).Uint(key, v)
	case "release":
		if len(rest) != 1 {
			return nil, errUsage
		}
		w.Str("op", op).Int("ch", ch).Str("path", strings.ToLower(rest[0]))
	case "arm":
		if len(rest) < 1 {
			return nil, errUsage
		}
		w.Str("op", op).Int("ch", ch).Str("path", strings.ToLower(rest[0]))
		for _, a := range rest[1:] {
			k, v, isKV := strings.Cut(a, "=")
			switch {
			case !isKV && (k == "active_high" || k == "inhibit" || k == "adin0" || k == "adin1"):
				w.Bool(k, true)
			case isKV && (k == "filter" || k == "response"):
				n, err := num(v)
				if err != nil {
					return nil, err
				}
				w.Uint(k, n)
			default:
				return nil, errors.New("bad arm option " + strconv.Quote(a))
			}
		}
	default:
		if len(rest) != 0 {
			return nil, errUsage
		}
		w.Str("op", op).Int("ch", ch)
	}
	return w.Bytes(), nil
}

// num parses decimal or 0x-prefixed hex.
func num(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.New("bad number " + strconv.Quote(s))
	}
	return uint32(v), nil
}
