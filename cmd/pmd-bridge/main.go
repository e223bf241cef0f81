// Command pmd-bridge exposes the firmware command link over a websocket.
// Each text frame is one request object; the reply is sent back as one
// text frame. With -sim the requests are served by an in-process simulated
// drive instead of a serial port.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"sync"
	"time"

	"apmd-go/drivers/apmd"
	"apmd-go/errcode"
	"apmd-go/host/serial"
	"apmd-go/internal/platform"
	"apmd-go/services/command"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Doer runs one request/reply exchange.
type Doer interface {
	Do(ctx context.Context, req []byte) ([]byte, error)
}

// simDoer serves requests from a command service over simulated blocks.
type simDoer struct {
	mu  sync.Mutex
	svc *command.Service
	out []byte
}

func newSimDoer(sysclk uint32) *simDoer {
	b := platform.Boot()
	drv := apmd.New(b.DriverConfig())
	return &simDoer{svc: command.New(drv, sysclk), out: make([]byte, 0, 512)}
}

func (s *simDoer) Do(_ context.Context, req []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = s.svc.Handle(req, s.out[:0])
	return append([]byte(nil), s.out...), nil
}

type bridge struct {
	doer     Doer
	timeout  time.Duration
	upgrader websocket.Upgrader
	mu       sync.Mutex // one websocket client at a time
}

func newBridge(d Doer, timeout time.Duration) *bridge {
	return &bridge{
		doer:    d,
		timeout: timeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  2048,
			WriteBufferSize: 2048,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (b *bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !b.mu.TryLock() {
		log.Print("Websocket multiple connections are not allowed with ", r.RemoteAddr)
		http.Error(w, "busy", http.StatusServiceUnavailable)
		return
	}
	defer b.mu.Unlock()
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("Websocket upgrade error: ", err)
		return
	}
	defer conn.Close()
	log.Print("Websocket connection established with ", r.RemoteAddr)

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			log.Print("Websocket read error: ", err)
			break
		}
		if mt != websocket.TextMessage {
			continue
		}
		reply := b.handle(context.Background(), msg)
		if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
			log.Print("Websocket write error: ", err)
			break
		}
	}
	log.Print("Websocket connection terminated with ", r.RemoteAddr)
}

type failure struct {
	OK  bool         `json:"ok"`
	Err errcode.Code `json:"err"`
}

func (b *bridge) handle(ctx context.Context, msg []byte) []byte {
	if !json.Valid(msg) || json.Get(msg).ValueType() != jsoniter.ObjectValue {
		return mustMarshal(failure{Err: errcode.InvalidPayload})
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	reply, err := b.doer.Do(ctx, msg)
	if err != nil {
		log.Print("Device error: ", err)
		if err == context.DeadlineExceeded {
			return mustMarshal(failure{Err: errcode.Timeout})
		}
		return mustMarshal(failure{Err: errcode.LinkDown})
	}
	return reply
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func main() {
	addr := flag.String("addr", ":1337", "listen address")
	dev := flag.String("port", "/dev/ttyUSB0", "serial device")
	baud := flag.Int("baud", 115200, "baud rate")
	sim := flag.Bool("sim", false, "serve a simulated drive instead of a serial port")
	sysclk := flag.Uint("sysclk", 160_000_000, "system clock in Hz for -sim")
	timeout := flag.Duration("timeout", 2*time.Second, "reply timeout")
	flag.Parse()

	var d Doer
	if *sim {
		d = newSimDoer(uint32(*sysclk))
		log.Print("Serving simulated drive")
	} else {
		cfg := serial.DefaultConfig(*dev)
		cfg.Baud = *baud
		port, err := serial.Open(cfg)
		if err != nil {
			log.Fatal(err)
		}
		defer port.Close()
		d = serial.NewClient(port, func(l string) { log.Print("device: ", l) })
	}

	http.Handle("/ws", newBridge(d, *timeout))
	log.Print("Listening on ", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
