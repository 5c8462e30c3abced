// rngread is a one-shot reader for any supported entropy source. It prints
// the requested bytes as hex, binary and a big-endian integer, which is
// handy for eyeballing a device before starting a long capture.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/Thiagojm/rngkit-go/device"
	"github.com/Thiagojm/rngkit-go/naming"
)

func main() {
	bytesFlag := flag.Int("bytes", 32, "number of bytes to read")
	deviceFlag := flag.String("device", "pseudo", "device to read from: trng|bitb|pseudo")
	foldsFlag := flag.Int("folds", 0, "BitBabbler XOR folds (0 = RAW, 1-4)")
	timeoutFlag := flag.Duration("timeout", 15*time.Second, "overall read timeout")
	flag.Parse()

	if *bytesFlag <= 0 {
		log.Fatal("-bytes must be > 0")
	}
	kind := naming.Device(*deviceFlag)
	if err := kind.Validate(); err != nil {
		log.Fatal(err)
	}

	src, err := device.New(kind, *foldsFlag)
	if err != nil {
		log.Fatal(err)
	}
	present, err := src.Detect()
	if err != nil {
		log.Fatalf("detect: %v", err)
	}
	if !present {
		log.Fatalf("%s device not found", kind)
	}
	if err := src.Open(); err != nil {
		log.Fatalf("open: %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()
	buf, err := src.ReadBytes(ctx, *bytesFlag)
	if err != nil {
		log.Fatalf("read: %v", err)
	}

	fmt.Printf("HEX: %x\n", buf)
	var sb strings.Builder
	for _, b := range buf {
		fmt.Fprintf(&sb, "%08b", b)
	}
	fmt.Printf("BIN: %s\n", sb.String())
	fmt.Printf("INT: %s\n", new(big.Int).SetBytes(buf).String())
}
