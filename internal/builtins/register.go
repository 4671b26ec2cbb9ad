package builtins

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	quarktypes "github.com/quark-lang/quarkc/internal/types"
)

// registerIO wires print (spec.md §4.5): variadic, auto-stringifies
// every argument and writes it to stdout via printf, the way the
// call site would do it by hand with libc.
func registerIO(r *Registry) {
	r.add(&Builtin{
		Name:       "print",
		ReturnType: quarktypes.Void,
		Variadic:   true,
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			printf := e.RuntimeFunc("printf")
			for _, a := range args {
				var s value.Value
				if a.Type.Kind == quarktypes.KStr {
					s = a.Value
				} else {
					s = e.Stringify(a)
				}
				e.Block().NewCall(printf, e.NewStringConstant("%s"), s)
				if a.Type.Kind != quarktypes.KStr {
					e.Free(s)
				}
			}
			e.Block().NewCall(printf, e.NewStringConstant("\n"))
			return nil, quarktypes.Void, nil
		},
	})

	r.add(&Builtin{
		Name:       "readline",
		ReturnType: quarktypes.Str,
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			bufSize := constant.NewInt(irtypes.I64, 4096)
			buf := e.Malloc(bufSize)
			fgets := e.RuntimeFunc("fgets")
			stdin := e.RuntimeFunc("quark_stdin_handle")
			handle := e.Block().NewCall(stdin)
			e.Block().NewCall(fgets, buf, constant.NewInt(irtypes.I32, 4096), handle)
			return buf, quarktypes.Str, nil
		},
	})
}

// registerConversion covers format/to_string/to_int (spec.md §4.5,
// §9's compile-time format-arity decision): when format's first
// argument is a string literal, the caller (codegen's call-site
// lowering) checks its `{}` placeholder count against the argument
// count and rewrites each `{}` to `%s` before Emit runs, so Emit here
// only has to build the snprintf calls.
func registerConversion(r *Registry) {
	r.add(&Builtin{
		Name:       "to_string",
		ReturnType: quarktypes.Str,
		ParamTypes: []*quarktypes.Type{quarktypes.Unknown},
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			return e.Stringify(args[0]), quarktypes.Str, nil
		},
	})

	r.add(&Builtin{
		Name:       "to_int",
		ReturnType: quarktypes.Int,
		ParamTypes: []*quarktypes.Type{quarktypes.Str},
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			atoi := e.RuntimeFunc("atoi")
			call := e.Block().NewCall(atoi, args[0].Value)
			return call, quarktypes.Int, nil
		},
	})

	r.add(&Builtin{
		Name:       "to_float",
		ReturnType: quarktypes.Double,
		ParamTypes: []*quarktypes.Type{quarktypes.Str},
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			atof := e.RuntimeFunc("atof")
			call := e.Block().NewCall(atof, args[0].Value)
			return call, quarktypes.Double, nil
		},
	})

	r.add(&Builtin{
		Name:       "format",
		ReturnType: quarktypes.Str,
		Variadic:   true,
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			if len(args) == 0 {
				return e.NewStringConstant(""), quarktypes.Str, nil
			}
			fmtArg := args[0]
			rest := args[1:]

			stringified := make([]value.Value, len(rest))
			for i, a := range rest {
				if a.Type.Kind == quarktypes.KStr {
					stringified[i] = a.Value
				} else {
					stringified[i] = e.Stringify(a)
				}
			}

			snprintf := e.RuntimeFunc("snprintf")
			sizeArg := constant.NewInt(irtypes.I64, 0)
			callArgs := append([]value.Value{constant.NewNull(irtypes.NewPointer(irtypes.I8)), sizeArg, fmtArg.Value}, stringified...)
			needed := e.Block().NewCall(snprintf, callArgs...)

			one := constant.NewInt(irtypes.I64, 1)
			sz := e.Block().NewAdd(e.Block().NewSExt(needed, irtypes.I64), one)
			out := e.Malloc(sz)

			callArgs2 := append([]value.Value{out, sz, fmtArg.Value}, stringified...)
			e.Block().NewCall(snprintf, callArgs2...)

			for i, a := range rest {
				if a.Type.Kind != quarktypes.KStr {
					e.Free(stringified[i])
				}
			}
			return out, quarktypes.Str, nil
		},
	})
}

// registerMath wires the libm wrappers and the min/max/clamp/abs
// families (spec.md §4.5); min/max/clamp dispatch on the operand
// type at the call site rather than being separately named per type,
// matching spec.md §9's generic-numeric-builtin decision.
func registerMath(r *Registry) {
	unary := func(name string) {
		r.add(&Builtin{
			Name:       name,
			ReturnType: quarktypes.Double,
			ParamTypes: []*quarktypes.Type{quarktypes.Double},
			Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
				fn := e.RuntimeFunc(name)
				return e.Block().NewCall(fn, args[0].Value), quarktypes.Double, nil
			},
		})
	}
	for _, n := range []string{"sqrt", "sin", "cos", "tan", "floor", "ceil", "fabs"} {
		unary(n)
	}

	r.add(&Builtin{
		Name:       "pow",
		ReturnType: quarktypes.Double,
		ParamTypes: []*quarktypes.Type{quarktypes.Double, quarktypes.Double},
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			fn := e.RuntimeFunc("pow")
			return e.Block().NewCall(fn, args[0].Value, args[1].Value), quarktypes.Double, nil
		},
	})

	r.add(&Builtin{
		Name:       "sleep",
		ReturnType: quarktypes.Void,
		ParamTypes: []*quarktypes.Type{quarktypes.Int},
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			fn := e.RuntimeFunc("sleep")
			e.Block().NewCall(fn, args[0].Value)
			return nil, quarktypes.Void, nil
		},
	})

	r.add(&Builtin{
		Name:       "abs",
		ParamTypes: []*quarktypes.Type{quarktypes.Unknown},
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			a := args[0]
			if a.Type.IsFloating() {
				fn := e.RuntimeFunc("fabs")
				return e.Block().NewCall(fn, a.Value), a.Type, nil
			}
			zero := constant.NewInt(irtypes.I32, 0)
			neg := e.Block().NewSub(zero, a.Value)
			isNeg := e.Block().NewICmp(enum.IPredSLT, a.Value, zero)
			sel := e.Block().NewSelect(isNeg, neg, a.Value)
			return sel, quarktypes.Int, nil
		},
	})

	minmax := func(name string, wantMin bool) {
		r.add(&Builtin{
			Name:       name,
			ParamTypes: []*quarktypes.Type{quarktypes.Unknown, quarktypes.Unknown},
			Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
				a, b := args[0], args[1]
				var cmp value.Value
				if a.Type.IsFloating() {
					op := enum.FPredOLT
					if !wantMin {
						op = enum.FPredOGT
					}
					cmp = e.Block().NewFCmp(op, a.Value, b.Value)
				} else {
					op := enum.IPredSLT
					if !wantMin {
						op = enum.IPredSGT
					}
					cmp = e.Block().NewICmp(op, a.Value, b.Value)
				}
				return e.Block().NewSelect(cmp, a.Value, b.Value), a.Type, nil
			},
		})
	}
	minmax("min", true)
	minmax("max", false)

	r.add(&Builtin{
		Name:       "clamp",
		ParamTypes: []*quarktypes.Type{quarktypes.Unknown, quarktypes.Unknown, quarktypes.Unknown},
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			v, lo, hi := args[0], args[1], args[2]
			var belowLo, aboveHi value.Value
			if v.Type.IsFloating() {
				belowLo = e.Block().NewFCmp(enum.FPredOLT, v.Value, lo.Value)
				aboveHi = e.Block().NewFCmp(enum.FPredOGT, v.Value, hi.Value)
			} else {
				belowLo = e.Block().NewICmp(enum.IPredSLT, v.Value, lo.Value)
				aboveHi = e.Block().NewICmp(enum.IPredSGT, v.Value, hi.Value)
			}
			clampedLo := e.Block().NewSelect(belowLo, lo.Value, v.Value)
			result := e.Block().NewSelect(aboveHi, hi.Value, clampedLo)
			return result, v.Type, nil
		},
	})
}

// registerString wires the str_* family over the heap-owned,
// null-terminated string convention (spec.md §4.4.3): every builtin
// that returns a *new* string returns a fresh malloc'd buffer the
// caller is responsible for, exactly like a user-written extern.
func registerString(r *Registry) {
	r.add(&Builtin{
		Name:       "str_len",
		ReturnType: quarktypes.Int,
		ParamTypes: []*quarktypes.Type{quarktypes.Str},
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			strlen := e.RuntimeFunc("strlen")
			call := e.Block().NewCall(strlen, args[0].Value)
			trunc := e.Block().NewTrunc(call, irtypes.I32)
			return trunc, quarktypes.Int, nil
		},
	})

	r.add(&Builtin{
		Name:       "str_concat",
		ReturnType: quarktypes.Str,
		ParamTypes: []*quarktypes.Type{quarktypes.Str, quarktypes.Str},
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			a, b := args[0].Value, args[1].Value
			strlen := e.RuntimeFunc("strlen")
			la := e.Block().NewCall(strlen, a)
			lb := e.Block().NewCall(strlen, b)
			total := e.Block().NewAdd(la, lb)
			total = e.Block().NewAdd(total, constant.NewInt(irtypes.I64, 1))
			out := e.Malloc(total)

			memcpy := e.RuntimeFunc("memcpy")
			e.Block().NewCall(memcpy, out, a, la)
			tail := e.Block().NewGetElementPtr(irtypes.I8, out, la)
			e.Block().NewCall(memcpy, tail, b, lb)
			endTail := e.Block().NewGetElementPtr(irtypes.I8, tail, lb)
			e.Block().NewStore(constant.NewInt(irtypes.I8, 0), endTail)
			return out, quarktypes.Str, nil
		},
	})

	r.add(&Builtin{
		Name:       "str_find",
		ReturnType: quarktypes.Str,
		ParamTypes: []*quarktypes.Type{quarktypes.Str, quarktypes.Str},
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			strstr := e.RuntimeFunc("strstr")
			call := e.Block().NewCall(strstr, args[0].Value, args[1].Value)
			return call, quarktypes.Str, nil
		},
	})

	r.add(&Builtin{
		Name:       "str_starts_with",
		ReturnType: quarktypes.Bool,
		ParamTypes: []*quarktypes.Type{quarktypes.Str, quarktypes.Str},
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			strlen := e.RuntimeFunc("strlen")
			strncmp := e.RuntimeFunc("strncmp")
			lp := e.Block().NewCall(strlen, args[1].Value)
			cmp := e.Block().NewCall(strncmp, args[0].Value, args[1].Value, lp)
			eq := e.Block().NewICmp(enum.IPredEQ, cmp, constant.NewInt(irtypes.I32, 0))
			return eq, quarktypes.Bool, nil
		},
	})

	r.add(&Builtin{
		Name:       "str_slice",
		ReturnType: quarktypes.Str,
		ParamTypes: []*quarktypes.Type{quarktypes.Str, quarktypes.Int, quarktypes.Int},
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			src, lo, hi := args[0].Value, args[1].Value, args[2].Value
			lo64 := e.Block().NewSExt(lo, irtypes.I64)
			hi64 := e.Block().NewSExt(hi, irtypes.I64)
			length := e.Block().NewSub(hi64, lo64)
			sz := e.Block().NewAdd(length, constant.NewInt(irtypes.I64, 1))
			out := e.Malloc(sz)

			memcpy := e.RuntimeFunc("memcpy")
			start := e.Block().NewGetElementPtr(irtypes.I8, src, lo64)
			e.Block().NewCall(memcpy, out, start, length)
			end := e.Block().NewGetElementPtr(irtypes.I8, out, length)
			e.Block().NewStore(constant.NewInt(irtypes.I8, 0), end)
			return out, quarktypes.Str, nil
		},
	})
}

// registerArray wires the array_* family over the length-prefixed
// array convention of spec.md §4.4.4: a 4-byte element count sits
// immediately before the payload pointer every array value carries.
func registerArray(r *Registry) {
	r.add(&Builtin{
		Name:       "array_length",
		ReturnType: quarktypes.Int,
		ParamTypes: []*quarktypes.Type{quarktypes.Array(quarktypes.Unknown)},
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			return e.ArrayLength(args[0].Value), quarktypes.Int, nil
		},
	})

	r.add(&Builtin{
		Name:       "array_free",
		ReturnType: quarktypes.Void,
		ParamTypes: []*quarktypes.Type{quarktypes.Array(quarktypes.Unknown)},
		Emit: func(e Emitter, args []Arg) (value.Value, *quarktypes.Type, error) {
			e.Free(e.ArrayBase(args[0].Value))
			return nil, quarktypes.Void, nil
		},
	})
}
