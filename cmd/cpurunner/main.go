package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/emu"
	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/romfile"
)

// exit codes
const (
	exitPass    = 0
	exitFail    = 1
	exitTimeout = 2
)

// failRe matches the failure summary printed by test ROMs: "Failed <n> tests".
var failRe = regexp.MustCompile(`(?i)failed\s+(\d+)\s+tests?`)

// stageRe captures test markers like "11:01".
var stageRe = regexp.MustCompile(`\b(\d{2}:\d{2})\b`)

type serialRing struct {
	buf  []byte
	idx  int
	fill int
}

func (r *serialRing) Write(p []byte) (int, error) {
	for _, ch := range p {
		r.buf[r.idx] = ch
		r.idx = (r.idx + 1) % len(r.buf)
		if r.fill < len(r.buf) {
			r.fill++
		}
	}
	return len(p), nil
}

func (r *serialRing) String() string {
	start := (r.idx - r.fill + len(r.buf)) % len(r.buf)
	out := make([]byte, r.fill)
	for j := range out {
		out[j] = r.buf[(start+j)%len(r.buf)]
	}
	return string(out)
}

// verdict inspects accumulated serial output. decided is false while no
// pass or fail marker has been printed yet.
func verdict(serial string, auto bool, until string) (code int, marker string, decided bool) {
	lower := strings.ToLower(serial)
	if auto {
		if strings.Contains(lower, "passed") {
			return exitPass, "PASS", true
		}
		if mm := failRe.FindStringSubmatch(serial); mm != nil {
			return exitFail, mm[0], true
		}
		return 0, "", false
	}
	if until != "" && strings.Contains(lower, strings.ToLower(until)) {
		return exitPass, until, true
	}
	return 0, "", false
}

// exhausted is the exit code once the frame budget runs out. A run that
// waits for a marker and never sees one is a timeout, not a pass.
func exhausted(auto bool, until string) int {
	if auto || until != "" {
		return exitTimeout
	}
	return exitPass
}

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb, .zip, .7z, .gz)")
	bootPath := flag.String("boot", "", "optional DMG boot ROM to run from 0x0000 until FF50 disables it")
	frames := flag.Int("frames", 6000, "max frames to run")
	until := flag.String("until", "Passed", "stop when serial output contains this substring (case-insensitive); empty to disable")
	auto := flag.Bool("auto", false, "detect 'Passed' or 'Failed N tests' in serial output and exit with code 0/1")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	doctor := flag.String("doctor", "", "write Game Boy Doctor trace lines to file")
	historyOnFail := flag.Bool("historyOnFail", false, "print the CPU's recent instruction history when a failure is detected")
	serialWindow := flag.Int("serialWindow", 8192, "number of recent serial bytes to retain for diagnostics on fail")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if lvl, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(lvl)
	}
	if *romPath == "" {
		log.Fatal("-rom is required")
	}

	var ser bytes.Buffer
	if *serialWindow < 256 {
		*serialWindow = 256
	}
	ring := &serialRing{buf: make([]byte, *serialWindow)}
	cfg := emu.Config{
		Logger:    log,
		SerialOut: io.MultiWriter(os.Stdout, &ser, ring),
	}
	if *doctor != "" {
		f, err := os.Create(*doctor)
		if err != nil {
			log.Fatalf("open doctor log: %v", err)
		}
		defer f.Close()
		cfg.DoctorLog = f
	}

	m := emu.New(cfg)
	if *bootPath != "" {
		boot, err := romfile.Load(*bootPath)
		if err != nil {
			log.Fatalf("read boot ROM: %v", err)
		}
		m.SetBootROM(boot)
	}
	if err := m.LoadROMFromFile(*romPath); err != nil {
		log.Fatalf("load ROM: %v", err)
	}

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}
	done := func(code int) {
		fmt.Printf("\nDone: frames=%d elapsed=%s\n", m.Frames(), time.Since(start).Truncate(time.Millisecond))
		os.Exit(code)
	}

	lastStage := ""
	for i := 0; i < *frames; i++ {
		if err := m.StepFrame(); err != nil {
			var ill *cpu.IllegalOpcodeError
			if errors.As(err, &ill) {
				fmt.Printf("\n%s\n", ill.Dump())
			} else {
				fmt.Printf("\n%v\n", err)
			}
			done(exitFail)
		}
		s := ser.String()
		if *auto {
			if mm := stageRe.FindAllString(s, -1); len(mm) > 0 {
				lastStage = mm[len(mm)-1]
			}
		}
		if code, marker, ok := verdict(s, *auto, *until); ok {
			if *auto {
				fmt.Printf("\nDetected %s in serial output.\n", marker)
				if lastStage != "" {
					fmt.Printf("Last stage seen: %s\n", lastStage)
				}
			} else {
				fmt.Printf("\nDetected '%s' in serial output.\n", marker)
			}
			if code == exitFail {
				if *historyOnFail {
					fmt.Printf("\n--- recent instructions ---\n")
					for _, tr := range m.CPU().History() {
						fmt.Printf("  %04X: %02X\n", tr.PC, tr.Opcode)
					}
					fmt.Printf("--- end ---\n")
				}
				if ring.fill > 0 {
					fmt.Printf("\n--- recent serial (last %d bytes) ---\n%s\n--- end serial ---\n", ring.fill, ring.String())
				}
			}
			done(code)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			done(exitTimeout)
		}
	}
	code := exhausted(*auto, *until)
	if code == exitTimeout {
		fmt.Printf("\nNo verdict after %d frames.\n", *frames)
	}
	done(code)
}
