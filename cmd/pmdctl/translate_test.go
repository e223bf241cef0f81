package main

import (
	"errors"
	"testing"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`init 0 2 comp`, `{"op":"init","ch":0,"phases":2,"comp":true}`},
		{`init 2 1`, `{"op":"init","ch":2,"phases":1,"comp":false}`},
		{`duty 0 u 0x4000`, `{"op":"duty","ch":0,"phase":"U","value":16384}`},
		{`pm 1 W 250`, `{"op":"duty","ch":1,"phase":"W","permille":250}`},
		{`hz 0 20000`, `{"op":"hz","ch":0,"value":20000}`},
		{`deadtime 0 1000ns`, `{"op":"deadtime","ch":0,"ns":1000}`},
		{`deadtime 0 40`, `{"op":"deadtime","ch":0,"ticks":40}`},
		{`release 2 EMG`, `{"op":"release","ch":2,"path":"emg"}`},
		{`arm 0 ovv active_high adin1 filter=7`, `{"op":"arm","ch":0,"path":"ovv","active_high":true,"adin1":true,"filter":7}`},
		{`status 1`, `{"op":"status","ch":1}`},
		{` {"op":"regs","ch":0} `, `{"op":"regs","ch":0}`},
	}
	for _, tc := range cases {
		got, err := translate(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Fatalf("%q:\n got %s\nwant %s", tc.in, got, tc.want)
		}
	}
}

func TestTranslate_Errors(t *testing.T) {
	for _, in := range []string{
		`duty`, `duty 0 U`, `nope 0`, `status x`, `freq 0 -1`,
		`arm 0 emg filter`, `status 0 extra`, `{"op":`, `init 0 "unterminated`,
	} {
		if _, err := translate(in); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
	if _, err := translate(`enable`); !errors.Is(err, errUsage) {
		t.Fatalf("err=%v", err)
	}
}
