package debugger

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/piotrmski/w16sim/machine"
)

// PromptContext is the state the command engine reads and mutates.
type PromptContext struct {
	State       *machine.State
	Symbols     *SymbolTable
	Breakpoints *[machine.MemorySize]bool
	Out         io.Writer
}

// Outcome tells the debug runtime what to do after a command ran.
type Outcome struct {
	Resume bool // leave the prompt and let the main loop proceed
	Step   bool // execute exactly one instruction before re-pausing
	Quit   bool // exit the process
}

type commandSpec struct {
	minArgs int
	maxArgs int
	run     func(ctx *PromptContext, args []string) (Outcome, error)
}

var commandTable = map[string]commandSpec{
	"h":  {0, 0, runHelp},
	"l":  {0, 1, runList},
	"lb": {0, 0, runListBreakpoints},
	"a":  {0, 0, runListLabels},
	"r":  {0, 0, runRegisters},
	"b":  {0, 1, runAddBreakpoint},
	"d":  {0, 1, runDeleteBreakpoint},
	"da": {0, 0, runDeleteAllBreakpoints},
	"c":  {0, 0, runContinue},
	"s":  {0, 0, runStep},
	"q":  {0, 0, runQuit},
}

// Dispatch parses and runs one prompt line. It never mutates machine
// state except through the documented effects of b/d/da/s/c/q.
func Dispatch(ctx *PromptContext, line string) (Outcome, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Outcome{}, nil
	}

	name := strings.ToLower(fields[0])
	args := fields[1:]

	spec, ok := commandTable[name]
	if !ok {
		return Outcome{}, fmt.Errorf("unknown command %q (try h for help)", fields[0])
	}
	if len(args) < spec.minArgs || len(args) > spec.maxArgs {
		return Outcome{}, fmt.Errorf("%q takes %d to %d argument(s), got %d", name, spec.minArgs, spec.maxArgs, len(args))
	}

	return spec.run(ctx, args)
}

func runHelp(ctx *PromptContext, _ []string) (Outcome, error) {
	fmt.Fprintln(ctx.Out, "h            print this help")
	fmt.Fprintln(ctx.Out, "l [expr]     list memory at PC, at expr, or over a range")
	fmt.Fprintln(ctx.Out, "lb           list all breakpoints")
	fmt.Fprintln(ctx.Out, "a            list all labels")
	fmt.Fprintln(ctx.Out, "r            show registers")
	fmt.Fprintln(ctx.Out, "b [expr]     add breakpoint at PC or expr")
	fmt.Fprintln(ctx.Out, "d [expr]     delete breakpoint at PC or expr")
	fmt.Fprintln(ctx.Out, "da           delete all breakpoints")
	fmt.Fprintln(ctx.Out, "c            continue")
	fmt.Fprintln(ctx.Out, "s            step one instruction")
	fmt.Fprintln(ctx.Out, "q            quit")
	return Outcome{}, nil
}

func arg0(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func runList(ctx *PromptContext, args []string) (Outcome, error) {
	lo, hi, err := ParseRange(arg0(args), ctx.State.PC, ctx.Symbols)
	if err != nil {
		return Outcome{}, err
	}
	printListing(ctx, lo, hi)
	return Outcome{}, nil
}

func runListBreakpoints(ctx *PromptContext, _ []string) (Outcome, error) {
	var addrs []uint16
	for addr := 0; addr < machine.MemorySize; addr++ {
		if ctx.Breakpoints[addr] {
			addrs = append(addrs, uint16(addr))
		}
	}
	if len(addrs) == 0 {
		fmt.Fprintln(ctx.Out, "no breakpoints set")
		return Outcome{}, nil
	}
	labelWidth := maxLabelWidth(ctx.Symbols, addrs)
	for i, addr := range addrs {
		fmt.Fprintln(ctx.Out, FormatRow(ctx.State, ctx.Symbols, addr, ctx.State.PC, true, labelWidth, i == 0))
	}
	return Outcome{}, nil
}

func runListLabels(ctx *PromptContext, _ []string) (Outcome, error) {
	labels := ctx.Symbols.Labels()
	addrs := make([]uint16, 0, len(labels))
	for addr := range labels {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, addr := range addrs {
		fmt.Fprintf(ctx.Out, "0x%04X %s\n", addr, labels[addr])
	}
	return Outcome{}, nil
}

func runRegisters(ctx *PromptContext, _ []string) (Outcome, error) {
	a := ctx.State.A
	printable := ""
	if a <= 0x7F {
		printable = " " + printableOrControlName(a)
	}
	fmt.Fprintf(ctx.Out, "A  = 0x%02X (%d)%s\n", a, a, printable)

	pcLabel := ""
	if label, ok := ctx.Symbols.Label(ctx.State.PC); ok {
		pcLabel = " <" + label + ">"
	}
	fmt.Fprintf(ctx.Out, "PC = 0x%04X%s\n", ctx.State.PC, pcLabel)

	instr := ctx.State.PeekInstruction(ctx.State.PC)
	fmt.Fprintf(ctx.Out, "    %s %s\n", instr.Op, argText(instr.Arg, ctx.Symbols))
	return Outcome{}, nil
}

func runAddBreakpoint(ctx *PromptContext, args []string) (Outcome, error) {
	addr, err := EvaluateAddress(arg0(args), ctx.State.PC, ctx.Symbols)
	if err != nil {
		return Outcome{}, err
	}
	ctx.Breakpoints[addr] = true
	fmt.Fprintf(ctx.Out, "breakpoint set at 0x%04X\n", addr)
	return Outcome{}, nil
}

func runDeleteBreakpoint(ctx *PromptContext, args []string) (Outcome, error) {
	addr, err := EvaluateAddress(arg0(args), ctx.State.PC, ctx.Symbols)
	if err != nil {
		return Outcome{}, err
	}
	ctx.Breakpoints[addr] = false
	fmt.Fprintf(ctx.Out, "breakpoint cleared at 0x%04X\n", addr)
	return Outcome{}, nil
}

func runDeleteAllBreakpoints(ctx *PromptContext, _ []string) (Outcome, error) {
	count := 0
	for addr := range ctx.Breakpoints {
		if ctx.Breakpoints[addr] {
			count++
			ctx.Breakpoints[addr] = false
		}
	}
	fmt.Fprintf(ctx.Out, "%d breakpoint(s) cleared\n", count)
	return Outcome{}, nil
}

func runContinue(_ *PromptContext, _ []string) (Outcome, error) {
	return Outcome{Resume: true}, nil
}

func runStep(_ *PromptContext, _ []string) (Outcome, error) {
	return Outcome{Resume: true, Step: true}, nil
}

func runQuit(_ *PromptContext, _ []string) (Outcome, error) {
	return Outcome{Resume: true, Quit: true}, nil
}

func maxLabelWidth(symbols *SymbolTable, addrs []uint16) int {
	width := 0
	for _, addr := range addrs {
		if label, ok := symbols.Label(addr); ok {
			if w := len(abbreviateLabel(label)); w > width {
				width = w
			}
		}
	}
	return width
}

func printListing(ctx *PromptContext, lo, hi uint16) {
	addrs := make([]uint16, 0, int(hi-lo)+1)
	for addr := lo; ; addr++ {
		addrs = append(addrs, addr)
		if addr == hi {
			break
		}
	}
	labelWidth := maxLabelWidth(ctx.Symbols, addrs)
	for i, addr := range addrs {
		fmt.Fprintln(ctx.Out, FormatRow(ctx.State, ctx.Symbols, addr, ctx.State.PC, ctx.Breakpoints[addr], labelWidth, i == 0))
	}
}
