// Package scripthost resolves function-reference handler properties
// ("pkg.func") to callable functions.
//
// The boundary is deliberately narrow: a FuncSource turns a reference
// string into a Func taking and returning i64 values. WasmHost backs
// that with the exports of a WebAssembly module; StaticSource backs it
// with a Go map. Script engine internals live behind this boundary and
// are not modeled here.
package scripthost
