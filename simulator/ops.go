package simulator

import (
	"fmt"

	"github.com/moffa90/go-autoprog/catalog"
)

// OpKind identifies a logged device call.
type OpKind int

const (
	OpSetPower OpKind = iota + 1
	OpReadSignature
	OpWriteFuse
	OpWriteFlashPage
	OpEmitPattern
)

func (k OpKind) String() string {
	switch k {
	case OpSetPower:
		return "set-power"
	case OpReadSignature:
		return "read-signature"
	case OpWriteFuse:
		return "write-fuse"
	case OpWriteFlashPage:
		return "write-page"
	case OpEmitPattern:
		return "emit-pattern"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

// Op is one entry in the operation log. Only the fields relevant to Kind are set.
type Op struct {
	Kind OpKind

	On bool // OpSetPower

	Category catalog.FuseCategory // OpWriteFuse
	Value    byte                 // OpWriteFuse

	Address uint32 // OpWriteFlashPage
	Length  int    // OpWriteFlashPage

	Pattern uint32 // OpEmitPattern
	Count   uint32 // OpEmitPattern

	// Err is the error the call returned
	Err error
}

func (op Op) String() string {
	var s string
	switch op.Kind {
	case OpSetPower:
		s = fmt.Sprintf("%s on=%t", op.Kind, op.On)
	case OpWriteFuse:
		s = fmt.Sprintf("%s %s=0x%02X", op.Kind, op.Category, op.Value)
	case OpWriteFlashPage:
		s = fmt.Sprintf("%s 0x%04X+%d", op.Kind, op.Address, op.Length)
	case OpEmitPattern:
		s = fmt.Sprintf("%s 0x%X x%d", op.Kind, op.Pattern, op.Count)
	default:
		s = op.Kind.String()
	}
	if op.Err != nil {
		s += fmt.Sprintf(" (error: %v)", op.Err)
	}
	return s
}

// Filter returns the ops of the given kinds, in log order.
func Filter(ops []Op, kinds ...OpKind) []Op {
	var out []Op
	for _, op := range ops {
		for _, k := range kinds {
			if op.Kind == k {
				out = append(out, op)
				break
			}
		}
	}
	return out
}
