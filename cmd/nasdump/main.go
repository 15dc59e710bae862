// nasdump decodes NAS-EPS PDUs given as hex strings, one per argument
// or one per stdin line, and prints a field summary per message.
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/epsnet/naseps"
)

func main() {
	configPath := flag.String("config", "", "decode config TOML file")
	keyHex := flag.String("key", "", "hex NAS ciphering key (overrides config)")
	direction := flag.String("direction", "", "uplink or downlink (overrides config)")
	forcePlain := flag.Bool("force-plain", false, "decode protected bodies as plaintext")
	flag.Parse()

	cfg, err := buildConfig(*configPath, *keyHex, *direction, *forcePlain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nasdump: %v\n", err)
		os.Exit(1)
	}

	inputs := flag.Args()
	if len(inputs) == 0 {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				inputs = append(inputs, line)
			}
		}
		if err := sc.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "nasdump: read stdin: %v\n", err)
			os.Exit(1)
		}
	}

	failed := false
	for _, in := range inputs {
		data, err := hex.DecodeString(strings.NewReplacer(" ", "", ":", "").Replace(in))
		if err != nil {
			fmt.Fprintf(os.Stderr, "nasdump: bad hex %q: %v\n", in, err)
			failed = true
			continue
		}
		m, err := naseps.Decode(data, cfg)
		dump(os.Stdout, m, "")
		if err != nil {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func buildConfig(path, keyHex, direction string, forcePlain bool) (naseps.Config, error) {
	var cfg naseps.Config
	if path != "" {
		loaded, err := naseps.LoadConfig(path)
		if err != nil {
			return naseps.Config{}, err
		}
		cfg = loaded
	}
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return naseps.Config{}, fmt.Errorf("parse key: %w", err)
		}
		cfg.Key = key
	}
	switch strings.ToLower(direction) {
	case "":
	case "uplink", "ul":
		cfg.Direction = naseps.DirectionUplink
	case "downlink", "dl":
		cfg.Direction = naseps.DirectionDownlink
	default:
		return naseps.Config{}, fmt.Errorf("unknown direction %q", direction)
	}
	if forcePlain {
		cfg.ForcePlain = true
	}
	return cfg, cfg.Validate()
}

func dump(w *os.File, m *naseps.Message, indent string) {
	name := m.MessageName
	if name == "" {
		name = fmt.Sprintf("type 0x%02x", m.MessageType)
	}
	fmt.Fprintf(w, "%s%s (pd %d)\n", indent, name, m.Discriminator)
	if m.Envelope != nil {
		fmt.Fprintf(w, "%s  security: %s, seq %d, mac %x\n",
			indent, m.Envelope.HeaderType, m.Envelope.Seq, m.Envelope.MAC)
	}
	if m.Deciphered {
		fmt.Fprintf(w, "%s  deciphered\n", indent)
	}
	if m.HeuristicPlain {
		fmt.Fprintf(w, "%s  zero MAC, decoded as plaintext\n", indent)
	}
	if sr := m.ServiceRequest; sr != nil {
		fmt.Fprintf(w, "%s  ksi %d, seq %d, short mac 0x%04x\n", indent, sr.KSI, sr.Sequence, sr.ShortMAC)
	}
	for _, f := range m.Leading {
		fmt.Fprintf(w, "%s  %s: %d\n", indent, f.Name, f.Value)
	}
	for _, e := range m.Elements {
		if inner, ok := e.Payload.(*naseps.Message); ok {
			fmt.Fprintf(w, "%s  %s:\n", indent, e.Name)
			dump(w, inner, indent+"    ")
			continue
		}
		if e.Payload == nil {
			fmt.Fprintf(w, "%s  %s: raw %x\n", indent, e.Name, e.Raw)
			continue
		}
		fmt.Fprintf(w, "%s  %s: %+v\n", indent, e.Name, e.Payload)
	}
	if len(m.Ciphered) > 0 {
		fmt.Fprintf(w, "%s  ciphered body: %d bytes\n", indent, len(m.Ciphered))
	}
	if len(m.Opaque) > 0 {
		fmt.Fprintf(w, "%s  opaque body: %x\n", indent, m.Opaque)
	}
	if len(m.Trailing) > 0 {
		fmt.Fprintf(w, "%s  trailing: %x\n", indent, m.Trailing)
	}
	for _, n := range m.Notices {
		fmt.Fprintf(w, "%s  notice: %v\n", indent, n)
	}
	if m.Err != nil {
		fmt.Fprintf(w, "%s  error: %v\n", indent, m.Err)
	}
}
