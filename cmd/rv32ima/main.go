// Command rv32ima boots a kernel image under the rv32 step engine and
// connects its UART to the controlling terminal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/tinyrange/rv32ima/internal/bootimage"
	"github.com/tinyrange/rv32ima/internal/console"
	"github.com/tinyrange/rv32ima/internal/hostexit"
	"github.com/tinyrange/rv32ima/internal/rv32"
)

func main() {
	if err := run(); err != nil {
		var exitErr *hostexit.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// fixCrlf rewrites bare "\n" to "\r\n" so guest output renders sanely
// once the host terminal is in raw mode.
type fixCrlf struct{ w io.Writer }

func (f fixCrlf) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			if _, err := f.w.Write([]byte{'\r', '\n'}); err != nil {
				return 0, err
			}
			continue
		}
		if _, err := f.w.Write([]byte{b}); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to a machine config YAML file")
		kernelPath = flag.String("kernel", "", "path to the kernel image")
		dtbPath    = flag.String("dtb", "", "path to a flattened device tree blob")
		bootArgs   = flag.String("bootargs", "", "kernel command line")
		memoryMB   uint64Flag
		stepBatch  uint64Flag
		debug      boolFlag
	)
	flag.Var(&memoryMB, "memory", "guest RAM size in MiB (default 64)")
	flag.Var(&stepBatch, "step-batch", "instructions per Step call (default 1024)")
	flag.Var(&debug, "debug", "enable verbose logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s -kernel <image> [flags]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := bootimage.Config{Kernel: *kernelPath, DTB: *dtbPath, BootArgs: *bootArgs}
	if *configPath != "" {
		fileCfg, err := bootimage.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = fileCfg
		if *kernelPath != "" {
			cfg.Kernel = *kernelPath
		}
		if *dtbPath != "" {
			cfg.DTB = *dtbPath
		}
		if *bootArgs != "" {
			cfg.BootArgs = *bootArgs
		}
	}
	if memoryMB.set {
		cfg.MemoryMB = memoryMB.v
	}
	if stepBatch.set {
		cfg.StepBatch = uint32(stepBatch.v)
	}
	if debug.set {
		cfg.Debug = debug.v
	}
	if cfg.MemoryMB == 0 {
		cfg.MemoryMB = 64
	}
	if cfg.StepBatch == 0 {
		cfg.StepBatch = 1024
	}
	if cfg.Kernel == "" {
		return fmt.Errorf("rv32ima: -kernel is required")
	}

	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if rows, cols, ok := terminalSize(); ok {
		logger.Debug("host terminal geometry", "rows", rows, "cols", cols)
	}

	img, err := bootimage.Load(cfg)
	if err != nil {
		return err
	}

	ram := make([]byte, cfg.MemoryMB*1024*1024)
	x10, x11, err := img.Place(ram, rv32.RAMBase)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	var restore func()
	if term.IsTerminal(int(os.Stdout.Fd())) {
		oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err == nil {
			out = fixCrlf{w: os.Stdout}
			restore = func() { _ = term.Restore(int(os.Stdin.Fd()), oldState) }
			defer restore()
		}
	}

	uart := console.New(out)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		if restore != nil {
			restore()
		}
		os.Exit(130)
	}()

	if term.IsTerminal(int(os.Stdin.Fd())) {
		go feedStdin(uart)
	}

	bus := rv32.NewBus(ram, rv32.RAMBase, uart, nil)

	var st rv32.State
	st.Reset(rv32.RAMBase)
	bootimage.Seed(&st, x10, x11)

	logger.Info("booting", "kernel", cfg.Kernel, "memoryMB", cfg.MemoryMB)

	last := time.Now()
	for {
		now := time.Now()
		elapsed := uint32(now.Sub(last).Microseconds())
		last = now

		code := rv32.Step(&st, bus, 0, elapsed, cfg.StepBatch)
		switch code {
		case rv32.StepOK:
			// keep going
		case rv32.StepWFI:
			time.Sleep(time.Millisecond)
		default:
			return &hostexit.ExitError{Code: int(code)}
		}
	}
}

// feedStdin copies raw terminal bytes into the guest UART's receive
// queue until stdin closes.
func feedStdin(uart *console.UART8250) {
	buf := make([]byte, 256)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			uart.Feed(buf[:n])
		}
		if err != nil {
			return
		}
	}
}
