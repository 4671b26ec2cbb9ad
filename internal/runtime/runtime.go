// Package runtime declares the C-ABI symbol table a compiled Quark
// program links against (spec.md §1, §4.4.7, §6): the host C library
// functions the builtin registry's IR templates call directly
// (malloc, free, printf/snprintf, libm), and the runtime support
// library's HTTP/WebSocket/JSON/IO/concurrent-map entry points, which
// this package only declares prototypes for — their bodies live in the
// external runtime support library the emitter links against, never in
// this compiler.
package runtime

import (
	irtypes "github.com/llir/llvm/ir/types"
)

// Proto is one C-ABI function prototype: enough for the code
// generator to build an *ir.Func declaration (no body) lazily on
// first use.
type Proto struct {
	Name     string
	Ret      irtypes.Type
	Params   []irtypes.Type
	Variadic bool
}

var i8ptr = irtypes.NewPointer(irtypes.I8)

// Libc is the subset of the host C library the builtin registry and
// generated code call directly. Declared lazily, one `declare` per
// module, on first use (spec.md §4.4.7's predeclare-before-use rule
// applies here too, just for libc rather than user externs).
var Libc = map[string]Proto{
	"malloc":   {Name: "malloc", Ret: i8ptr, Params: []irtypes.Type{irtypes.I64}},
	"free":     {Name: "free", Ret: irtypes.Void, Params: []irtypes.Type{i8ptr}},
	"realloc":  {Name: "realloc", Ret: i8ptr, Params: []irtypes.Type{i8ptr, irtypes.I64}},
	"memcpy":   {Name: "memcpy", Ret: i8ptr, Params: []irtypes.Type{i8ptr, i8ptr, irtypes.I64}},
	"snprintf": {Name: "snprintf", Ret: irtypes.I32, Params: []irtypes.Type{i8ptr, irtypes.I64, i8ptr}, Variadic: true},
	"printf":   {Name: "printf", Ret: irtypes.I32, Params: []irtypes.Type{i8ptr}, Variadic: true},
	"puts":     {Name: "puts", Ret: irtypes.I32, Params: []irtypes.Type{i8ptr}},
	"strlen":   {Name: "strlen", Ret: irtypes.I64, Params: []irtypes.Type{i8ptr}},
	"strcmp":   {Name: "strcmp", Ret: irtypes.I32, Params: []irtypes.Type{i8ptr, i8ptr}},
	"strncmp":  {Name: "strncmp", Ret: irtypes.I32, Params: []irtypes.Type{i8ptr, i8ptr, irtypes.I64}},
	"strstr":   {Name: "strstr", Ret: i8ptr, Params: []irtypes.Type{i8ptr, i8ptr}},
	"atoi":     {Name: "atoi", Ret: irtypes.I32, Params: []irtypes.Type{i8ptr}},
	"atof":     {Name: "atof", Ret: irtypes.Double, Params: []irtypes.Type{i8ptr}},
	"sleep":    {Name: "sleep", Ret: irtypes.I32, Params: []irtypes.Type{irtypes.I32}},
	"fgets":    {Name: "fgets", Ret: i8ptr, Params: []irtypes.Type{i8ptr, irtypes.I32, i8ptr}},

	// libm (the only freestanding-incompatible math group; §4.7's
	// --freestanding disables builtins that need these).
	"sqrt":  {Name: "sqrt", Ret: irtypes.Double, Params: []irtypes.Type{irtypes.Double}},
	"sin":   {Name: "sin", Ret: irtypes.Double, Params: []irtypes.Type{irtypes.Double}},
	"cos":   {Name: "cos", Ret: irtypes.Double, Params: []irtypes.Type{irtypes.Double}},
	"tan":   {Name: "tan", Ret: irtypes.Double, Params: []irtypes.Type{irtypes.Double}},
	"pow":   {Name: "pow", Ret: irtypes.Double, Params: []irtypes.Type{irtypes.Double, irtypes.Double}},
	"floor": {Name: "floor", Ret: irtypes.Double, Params: []irtypes.Type{irtypes.Double}},
	"ceil":  {Name: "ceil", Ret: irtypes.Double, Params: []irtypes.Type{irtypes.Double}},
	"fabs":  {Name: "fabs", Ret: irtypes.Double, Params: []irtypes.Type{irtypes.Double}},
}

// Support is the runtime support library's own C-ABI surface (spec.md
// §1, §6): HTTP, WebSocket, JSON, I/O, and a concurrent map. Every
// returned string follows the "malloc-allocated, free with the
// matching *_free" convention spec.md §6 requires. None of these
// symbols have a body in this compiler; the emitter links the object
// file against the runtime support library that provides them.
var Support = map[string]Proto{
	"quark_http_get":        {Name: "quark_http_get", Ret: i8ptr, Params: []irtypes.Type{i8ptr}},
	"quark_http_post":       {Name: "quark_http_post", Ret: i8ptr, Params: []irtypes.Type{i8ptr, i8ptr}},
	"quark_http_free":       {Name: "quark_http_free", Ret: irtypes.Void, Params: []irtypes.Type{i8ptr}},
	"quark_ws_connect":      {Name: "quark_ws_connect", Ret: i8ptr, Params: []irtypes.Type{i8ptr}},
	"quark_ws_send":         {Name: "quark_ws_send", Ret: irtypes.I32, Params: []irtypes.Type{i8ptr, i8ptr}},
	"quark_ws_recv":         {Name: "quark_ws_recv", Ret: i8ptr, Params: []irtypes.Type{i8ptr}},
	"quark_ws_close":        {Name: "quark_ws_close", Ret: irtypes.Void, Params: []irtypes.Type{i8ptr}},
	"quark_json_parse":      {Name: "quark_json_parse", Ret: i8ptr, Params: []irtypes.Type{i8ptr}},
	"quark_json_stringify":  {Name: "quark_json_stringify", Ret: i8ptr, Params: []irtypes.Type{i8ptr}},
	"quark_json_free":       {Name: "quark_json_free", Ret: irtypes.Void, Params: []irtypes.Type{i8ptr}},
	"quark_io_read_file":    {Name: "quark_io_read_file", Ret: i8ptr, Params: []irtypes.Type{i8ptr}},
	"quark_io_write_file":   {Name: "quark_io_write_file", Ret: irtypes.I32, Params: []irtypes.Type{i8ptr, i8ptr}},
	"quark_map_new":         {Name: "quark_map_new", Ret: i8ptr},
	"quark_map_set":         {Name: "quark_map_set", Ret: irtypes.Void, Params: []irtypes.Type{i8ptr, i8ptr, i8ptr}},
	"quark_map_get":         {Name: "quark_map_get", Ret: i8ptr, Params: []irtypes.Type{i8ptr, i8ptr}},
	"quark_map_delete":      {Name: "quark_map_delete", Ret: irtypes.Void, Params: []irtypes.Type{i8ptr, i8ptr}},
	"quark_map_free":        {Name: "quark_map_free", Ret: irtypes.Void, Params: []irtypes.Type{i8ptr}},
	"quark_stdin_handle":    {Name: "quark_stdin_handle", Ret: i8ptr},
}

// Lookup finds a prototype by name across both tables, libc first.
func Lookup(name string) (Proto, bool) {
	if p, ok := Libc[name]; ok {
		return p, true
	}
	p, ok := Support[name]
	return p, ok
}

// FreestandingBlocklist names builtins disabled under --freestanding
// (spec.md §4.7), because their IR templates call into Libc or
// Support rather than being self-contained.
var FreestandingBlocklist = map[string]bool{
	"sleep": true, "sqrt": true, "sin": true, "cos": true, "tan": true,
	"pow": true, "floor": true, "ceil": true, "fabs": true, "readline": true,
}
