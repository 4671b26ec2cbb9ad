package codegen

import (
	irtypes "github.com/llir/llvm/ir/types"

	quarktypes "github.com/quark-lang/quarkc/internal/types"
)

// IRType converts a Quark types.Type into its LLVM-level
// representation (spec.md §4.4's "standard LLVM typing vocabulary"):
// i1 for bool, i8 for char, i32 for the default integer, float/double
// for the floating kinds, a pointer to the opaque-or-defined named
// struct for KStruct, a pointer for KPointer, and a plain i8-pointer "payload"
// handle for KArray/KStr (spec.md §4.4.3/§4.4.4 — the length prefix
// and header live outside the type system, in the generator's GEP
// arithmetic).
func (g *Generator) IRType(t *quarktypes.Type) irtypes.Type {
	switch t.Kind {
	case quarktypes.KInt:
		return irtypes.I32
	case quarktypes.KFloat:
		return irtypes.Float
	case quarktypes.KDouble:
		return irtypes.Double
	case quarktypes.KBool:
		return irtypes.I1
	case quarktypes.KChar:
		return irtypes.I8
	case quarktypes.KStr:
		return i8ptr
	case quarktypes.KVoid:
		return irtypes.Void
	case quarktypes.KNull:
		return i8ptr
	case quarktypes.KStruct:
		return irtypes.NewPointer(g.structType(t.Name))
	case quarktypes.KPointer:
		return irtypes.NewPointer(g.IRType(t.Elem))
	case quarktypes.KArray:
		return i8ptr
	default:
		return i8ptr
	}
}

// structType returns the named IR struct type for name, predeclaring
// it (as opaque, then filling in fields once known) the first time
// it's requested. Opaque extern structs (spec.md §4.4.7) stay opaque
// forever — only pointers to them are ever formed.
func (g *Generator) structType(name string) *irtypes.StructType {
	if st, ok := g.structTypes[name]; ok {
		return st
	}
	st := &irtypes.StructType{Opaque: true}
	g.Module.NewTypeDef(name, st)
	g.structTypes[name] = st
	return st
}

// DefineStruct fills in the field layout of a previously predeclared
// struct type. Field layout is declaration order with inherited
// parent fields first (spec.md §3, §4.4.5's "structural prefix
// embedding"); extern structs are never filled in, staying opaque.
func (g *Generator) DefineStruct(info *quarktypes.StructInfo) {
	st := g.structType(info.Name)
	if info.Extern {
		return
	}
	st.Opaque = false
	fields := info.AllFields(g.Structs)
	st.Fields = make([]irtypes.Type, len(fields))
	for i, f := range fields {
		st.Fields[i] = g.IRType(f.Type)
	}
}

// FieldIndex returns the IR struct-field index of fieldName within
// structName, accounting for inherited parent fields prepended ahead
// of it (spec.md §4.4.5).
func FieldIndex(registry map[string]*quarktypes.StructInfo, structName, fieldName string) (int, *quarktypes.Type, bool) {
	info, ok := registry[structName]
	if !ok {
		return 0, nil, false
	}
	fields := info.AllFields(registry)
	for i, f := range fields {
		if f.Name == fieldName {
			return i, f.Type, true
		}
	}
	return 0, nil, false
}
