package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/piotrmski/w16sim/machine"
)

// EvaluateAddress evaluates a single address expression against the
// current PC and symbol table (design §4.6). An empty expr defaults to
// the current PC.
func EvaluateAddress(expr string, pc uint16, symbols *SymbolTable) (uint16, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return pc, nil
	}

	addr, err := evalSingle(expr, pc, symbols)
	if err != nil {
		return 0, err
	}
	if addr < 0 || addr >= machine.MemorySize {
		return 0, fmt.Errorf("invalid address %q: 0x%X is out of range", expr, addr)
	}
	return uint16(addr), nil
}

// ParseRange evaluates a range expression `expr | expr:expr` (design
// §4.6). An empty expr defaults to PC:PC.
func ParseRange(expr string, pc uint16, symbols *SymbolTable) (lo, hi uint16, err error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return pc, pc, nil
	}

	parts := strings.Split(expr, ":")
	switch len(parts) {
	case 1:
		a, err := EvaluateAddress(parts[0], pc, symbols)
		if err != nil {
			return 0, 0, err
		}
		return a, a, nil
	case 2:
		loVal, err := evalSingle(strings.TrimSpace(parts[0]), pc, symbols)
		if err != nil {
			return 0, 0, err
		}
		hiVal, err := evalSingle(strings.TrimSpace(parts[1]), pc, symbols)
		if err != nil {
			return 0, 0, err
		}
		if loVal < 0 || loVal >= machine.MemorySize {
			return 0, 0, fmt.Errorf("invalid range %q: start 0x%X is out of range", expr, loVal)
		}
		if hiVal < 0 || hiVal >= machine.MemorySize {
			return 0, 0, fmt.Errorf("invalid range %q: end 0x%X is out of range", expr, hiVal)
		}
		if loVal > hiVal {
			return 0, 0, fmt.Errorf("invalid range %q: start 0x%X is after end 0x%X", expr, loVal, hiVal)
		}
		return uint16(loVal), uint16(hiVal), nil
	default:
		return 0, 0, fmt.Errorf("invalid range %q: too many ':' separators", expr)
	}
}

// evalSingle returns a signed int so out-of-range / negative results
// can be reported against the original expression before truncation.
func evalSingle(expr string, pc uint16, symbols *SymbolTable) (int, error) {
	if expr == "" {
		return int(pc), nil
	}

	if expr[0] == '+' || expr[0] == '-' {
		n, err := strconv.ParseInt(expr[1:], 0, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid expression %q: %w", expr, err)
		}
		if expr[0] == '-' {
			n = -n
		}
		return int(pc) + int(n), nil
	}

	if n, err := strconv.ParseInt(expr, 0, 32); err == nil {
		return int(n), nil
	}

	// label or label±N
	label := expr
	offset := 0
	if i := strings.IndexAny(expr, "+-"); i > 0 {
		label = expr[:i]
		n, err := strconv.ParseInt(expr[i+1:], 0, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid expression %q: %w", expr, err)
		}
		if expr[i] == '-' {
			n = -n
		}
		offset = int(n)
	}

	addr, ok := symbols.Address(label)
	if !ok {
		return 0, fmt.Errorf("invalid expression %q: unknown label %q", expr, label)
	}
	return int(addr) + offset, nil
}
