// Package config turns process arguments into a Config record.
//
// It is a thin collaborator: the rest of the simulator only ever sees
// the resulting Config value, never argv directly. Per the design,
// this layer (and binary/symbol file loading) sits outside the core
// simulator and debugger — it is specified only through this struct.
package config

import (
	"errors"
	"fmt"

	cli "gopkg.in/urfave/cli.v2"
)

// Config is the parsed command-line configuration handed to main.
type Config struct {
	// BinaryPath is the program image to load.
	BinaryPath string

	// Debug starts the interactive debugger instead of the default
	// run-to-halt loop.
	Debug bool

	// SymbolsPath is optional; an empty string means no symbol table.
	SymbolsPath string

	// ClockFrequencyKHz throttles the default runtime. Zero means "use
	// the simulator's built-in default throttle".
	ClockFrequencyKHz int

	// Verbose dumps the full machine state after each step while
	// debugging. A supplementary diagnostic, not part of spec.md.
	Verbose bool
}

// ErrShowHelp is returned when the user asked for -h/--help; the caller
// should exit 0 without running anything.
var ErrShowHelp = errors.New("help requested")

// Parse builds a Config from process arguments (args[0] is the program
// name, matching os.Args). Argument errors are returned as a non-nil
// error for the caller to print; the caller should exit 1 in that case,
// except when the error is ErrShowHelp (exit 0).
func Parse(args []string) (Config, error) {
	var cfg Config
	var ran bool

	app := &cli.App{
		Name:                   "w16sim",
		Usage:                  "simulate and debug W16 binary images",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "start in the interactive debugger",
			},
			&cli.StringFlag{
				Name:    "symbols",
				Aliases: []string{"s"},
				Usage:   "path to a symbols file",
			},
			&cli.IntFlag{
				Name:  "khz",
				Usage: "clock frequency in kHz (1-1000000), 0 uses the default throttle",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "dump the full machine state after each step while debugging",
			},
		},
		Action: func(c *cli.Context) error {
			ran = true

			if c.NArg() == 0 {
				return fmt.Errorf("missing binary file path")
			}
			if c.NArg() > 1 {
				return fmt.Errorf("too many binary file paths given: %v", c.Args().Slice())
			}

			khz := c.Int("khz")
			if khz < 0 || khz > 1_000_000 {
				return fmt.Errorf("khz must be between 1 and 1000000, got %d", khz)
			}

			cfg = Config{
				BinaryPath:        c.Args().First(),
				Debug:             c.Bool("debug"),
				SymbolsPath:       c.String("symbols"),
				ClockFrequencyKHz: khz,
				Verbose:           c.Bool("verbose"),
			}
			return nil
		},
	}

	if err := app.Run(args); err != nil {
		return Config{}, fmt.Errorf("argument error: %w", err)
	}

	// The built-in -h/--help flag short-circuits before Action runs.
	if !ran {
		return Config{}, ErrShowHelp
	}

	return cfg, nil
}
