package codegen

import "github.com/llir/llvm/ir/enum"

// icmpPred maps a source comparison operator to the LLVM integer
// predicate to use, signed unless the operand types are pointer-like
// (spec.md §4.3 only defines signed integer comparison for `int`).
func icmpPred(op string, signed bool) enum.IPred {
	switch op {
	case "==":
		return enum.IPredEQ
	case "!=":
		return enum.IPredNE
	case "<":
		if signed {
			return enum.IPredSLT
		}
		return enum.IPredULT
	case ">":
		if signed {
			return enum.IPredSGT
		}
		return enum.IPredUGT
	case "<=":
		if signed {
			return enum.IPredSLE
		}
		return enum.IPredULE
	case ">=":
		if signed {
			return enum.IPredSGE
		}
		return enum.IPredUGE
	}
	return enum.IPredEQ
}

func fcmpPred(op string) enum.FPred {
	switch op {
	case "==":
		return enum.FPredOEQ
	case "!=":
		return enum.FPredONE
	case "<":
		return enum.FPredOLT
	case ">":
		return enum.FPredOGT
	case "<=":
		return enum.FPredOLE
	case ">=":
		return enum.FPredOGE
	}
	return enum.FPredOEQ
}
