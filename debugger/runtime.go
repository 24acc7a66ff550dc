package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/piotrmski/w16sim/machine"
)

// Runtime couples the machine's step loop with a pause latch, a
// breakpoint table, SIGINT handling, and idle-time accounting
// (design §4.8, §C8).
type Runtime struct {
	State    *machine.State
	Keyboard *machine.Keyboard
	Symbols  *SymbolTable

	Breakpoints [machine.MemorySize]bool

	// Verbose dumps the full machine state after each step, a
	// supplementary diagnostic layered on top of spec.md's debugger.
	Verbose bool

	paused   atomic.Bool
	stepping bool

	in  *bufio.Reader
	out io.Writer
}

// NewRuntime builds a debug runtime reading prompt input from in and
// writing all debugger output to out.
func NewRuntime(state *machine.State, keyboard *machine.Keyboard, symbols *SymbolTable, in io.Reader, out io.Writer) *Runtime {
	return &Runtime{
		State:    state,
		Keyboard: keyboard,
		Symbols:  symbols,
		in:       bufio.NewReader(in),
		out:      out,
	}
}

// Run drives the machine to halt, pausing at breakpoints, on single
// steps, and on SIGINT, per the loop ordering in design §4.8: the
// pause/step/breakpoint condition is checked before step, and step is
// called exactly once per iteration regardless of why the prompt ran.
func (r *Runtime) Run() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go r.handleSignals(sigCh)

	if err := r.Keyboard.Start(); err != nil {
		return err
	}

	for !r.State.Halted {
		if r.paused.Load() || r.stepping || r.Breakpoints[r.State.PC] {
			r.paused.Store(true)
			r.stepping = false

			idleStart := r.State.Clock.NowMs()
			if err := r.Keyboard.Stop(); err != nil {
				return err
			}

			quit := r.promptLoop()
			if quit {
				return nil
			}

			if err := r.Keyboard.Start(); err != nil {
				return err
			}
			r.State.AddIdleTime(r.State.Clock.NowMs() - idleStart)
			r.paused.Store(false)
		}

		r.State.Step()
		if r.Verbose {
			fmt.Fprintln(r.out, DumpState(r.State))
			r.flushOut()
		}
	}

	_ = r.Keyboard.Stop()
	fmt.Fprintln(r.out, "Unconditional infinite loop detected. Ending simulation.")
	r.flushOut()
	return nil
}

type flusher interface {
	Flush() error
}

func (r *Runtime) flushOut() {
	if f, ok := r.out.(flusher); ok {
		_ = f.Flush()
	}
}

// handleSignals implements the SIGINT-equivalent handler: pause once,
// quit the process if it arrives while already paused.
func (r *Runtime) handleSignals(sigCh <-chan os.Signal) {
	for range sigCh {
		if r.paused.Load() {
			fmt.Fprintln(r.out, "Quitting.")
			r.flushOut()
			os.Exit(0)
		}
		r.paused.Store(true)
	}
}

// promptLoop runs the interactive command prompt until a command
// returns "resume". It reports whether the user quit.
func (r *Runtime) promptLoop() bool {
	ctx := &PromptContext{
		State:       r.State,
		Symbols:     r.Symbols,
		Breakpoints: &r.Breakpoints,
		Out:         r.out,
	}

	for {
		fmt.Fprint(r.out, "> ")
		r.flushOut()
		line, err := r.in.ReadString('\n')
		if err != nil && line == "" {
			return true
		}

		outcome, err := Dispatch(ctx, line)
		if err != nil {
			fmt.Fprintln(r.out, err)
		}
		r.flushOut()
		if err != nil {
			continue
		}
		if outcome.Quit {
			return true
		}
		if outcome.Step {
			r.stepping = true
		}
		if outcome.Resume {
			return false
		}
	}
}
