// Command pmdctl is an interactive console for the motor-drive firmware's
// command link.
//
//	pmdctl -port /dev/ttyUSB0
//	> init 0 2 comp
//	> hz 0 20000
//	> pm 0 U 250
//	> enable 0
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"apmd-go/host/serial"
)

func main() {
	dev := flag.String("port", "/dev/ttyUSB0", "serial device")
	baud := flag.Int("baud", 115200, "baud rate")
	timeout := flag.Duration("timeout", 2*time.Second, "reply timeout")
	flag.Parse()

	cfg := serial.DefaultConfig(*dev)
	cfg.Baud = *baud
	port, err := serial.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer port.Close()

	c := serial.NewClient(port, func(l string) { log.Print("device: ", l) })
	in := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for in.Scan() {
		line := in.Text()
		switch line {
		case "":
		case "help", "?":
			printUsage()
		case "quit", "exit":
			return
		default:
			run(c, line, *timeout)
		}
		fmt.Print("> ")
	}
}

func run(c *serial.Client, line string, timeout time.Duration) {
	req, err := translate(line)
	if errors.Is(err, errUsage) {
		printUsage()
		return
	}
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	reply, err := c.Do(ctx, req)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(string(reply))
}

func printUsage() {
	keys := make([]string, 0, len(usage))
	for k := range usage {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Println("  " + usage[k])
	}
}
