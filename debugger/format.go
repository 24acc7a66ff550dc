package debugger

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"github.com/piotrmski/w16sim/machine"
)

var (
	pcStyle = lipgloss.NewStyle().Bold(true)
	bpStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

var controlNames = map[byte]string{
	0x00: "NUL",
	0x09: "TAB",
	0x0A: "LF",
	0x1B: "ESC",
	0x7F: "DEL",
}

// printableOrControlName renders a byte as a printable character in
// quotes, a known control-code mnemonic, or a hex escape.
func printableOrControlName(b byte) string {
	if name, ok := controlNames[b]; ok {
		return name
	}
	if b >= 0x20 && b < 0x7F {
		return fmt.Sprintf("%q", rune(b))
	}
	return fmt.Sprintf("0x%02X", b)
}

// abbreviateLabel shortens labels over 8 characters to "first5...".
func abbreviateLabel(label string) string {
	if len(label) <= 8 {
		return label
	}
	return label[:5] + "..."
}

// operandValue renders M[arg] honoring the operand address's own data
// type, for the "M[ARG] = VALUE" suffix on LD/NOT/ADD/AND rows.
func operandValue(state *machine.State, symbols *SymbolTable, arg uint16) string {
	v := state.PeekMemory(arg)
	switch symbols.DataTypeAt(arg) {
	case TypeChar:
		return printableOrControlName(v)
	case TypeInt:
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprintf("0x%02X", v)
	}
}

func argText(arg uint16, symbols *SymbolTable) string {
	if label, ok := symbols.Label(arg); ok {
		return abbreviateLabel(label)
	}
	return fmt.Sprintf("0x%04X", arg)
}

// FormatRow renders one memory-listing line (design §4.7).
//
// labelWidth is the padding width for the batch's longest label; first
// marks whether this is the first row of the current listing, which
// controls whether a suppressed "none" second byte is still shown.
func FormatRow(state *machine.State, symbols *SymbolTable, addr uint16, pc uint16, isBreakpoint bool, labelWidth int, first bool) string {
	pcMark := "  "
	if addr == pc {
		pcMark = pcStyle.Render("PC")
	}

	bpMark := " "
	if isBreakpoint {
		bpMark = bpStyle.Render("B")
	}

	label, hasLabel := symbols.Label(addr)
	labelField := fmt.Sprintf("%-*s", labelWidth, abbreviateLabel(label))
	sep := " "
	if hasLabel {
		sep = ":"
	}

	value := formatValue(state, symbols, addr, first)

	return fmt.Sprintf("%s %s 0x%04X %s%s %s", pcMark, bpMark, addr, labelField, sep, value)
}

func formatValue(state *machine.State, symbols *SymbolTable, addr uint16, first bool) string {
	dt := symbols.DataTypeAt(addr)

	switch dt {
	case TypeInstruction:
		instr := state.PeekInstruction(addr)
		text := fmt.Sprintf("%s %s", instr.Op, argText(instr.Arg, symbols))
		if instr.Op.ReadsOperand() {
			text += fmt.Sprintf(" M[%s] = %s", argText(instr.Arg, symbols), operandValue(state, symbols, instr.Arg))
		}
		return text
	case TypeChar:
		return printableOrControlName(state.PeekMemory(addr))
	case TypeInt:
		return fmt.Sprintf("%d", state.PeekMemory(addr))
	default:
		if addr > 0 && symbols.DataTypeAt(addr-1) == TypeInstruction {
			_, labeled := symbols.Label(addr)
			if first || labeled {
				mnemonic := state.PeekInstruction(addr - 1).Op
				return fmt.Sprintf("0x%02X (second byte of a %s instruction)", state.PeekMemory(addr), mnemonic)
			}
			return ""
		}
		return fmt.Sprintf("0x%02X", state.PeekMemory(addr))
	}
}

// DumpState renders a verbose developer-facing snapshot of the machine
// state, used by the debugger's rarely-needed internal diagnostics.
func DumpState(state *machine.State) string {
	return spew.Sdump(state)
}
