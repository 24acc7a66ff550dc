// Command w16sim loads a W16 binary image and either runs it to halt
// or drops into the interactive debugger.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/piotrmski/w16sim/config"
	"github.com/piotrmski/w16sim/debugger"
	"github.com/piotrmski/w16sim/machine"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	cfg, err := config.Parse(args)
	if err != nil {
		if err == config.ErrShowHelp {
			return 0
		}
		fmt.Println(err)
		return 1
	}

	image, err := os.ReadFile(cfg.BinaryPath)
	if err != nil {
		fmt.Printf("cannot read binary file %s: %v\n", cfg.BinaryPath, err)
		return 1
	}
	if len(image) > int(machine.IOPort) {
		fmt.Printf("binary file %s is %d bytes, exceeds the 0x1FFF byte limit\n", cfg.BinaryPath, len(image))
		return 1
	}

	symbols := debugger.NewSymbolTable()
	if cfg.SymbolsPath != "" {
		symbols, err = debugger.ParseSymbolsFile(cfg.SymbolsPath)
		if err != nil {
			fmt.Println(err)
			return 1
		}
	}

	clock := machine.NewSystemClock()
	keyboard := machine.NewKeyboard()
	stdout := bufio.NewWriter(os.Stdout)
	defer stdout.Flush()

	state := machine.NewState(clock, keyboard, stdout)
	state.LoadImage(image)

	if cfg.Debug {
		rt := debugger.NewRuntime(state, keyboard, symbols, os.Stdin, stdout)
		rt.Verbose = cfg.Verbose
		if err := rt.Run(); err != nil {
			stdout.Flush()
			fmt.Println(err)
			return 1
		}
		return 0
	}

	if err := machine.Run(state, keyboard, cfg.ClockFrequencyKHz); err != nil {
		stdout.Flush()
		fmt.Println(err)
		return 1
	}
	return 0
}
