package hotpatch

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// merge links src into dst with a source-wins policy: any symbol defined in
// both modules resolves to src's definition afterwards. The one exception is
// function declarations: a body-less declaration in src never displaces a
// definition in dst, matching linker semantics.
//
// Type definitions merge by name. Same-named definitions with structurally
// different bodies are a merge failure; by that point dst has not been
// mutated, but a failure reported by a future pass would leave dst partially
// modified, which is an accepted limitation of the linker.
func merge(dst, src *ir.Module) error {
	if err := mergeTypeDefs(dst, src); err != nil {
		return err
	}
	mergeGlobals(dst, src)
	mergeFuncs(dst, src)
	return nil
}

// mergeTypeDefs verifies src's named types against dst's and appends the new
// ones. Both modules keep their own type instances; printing is by name, so
// structurally equal same-named definitions are interchangeable.
func mergeTypeDefs(dst, src *ir.Module) error {
	byName := make(map[string]types.Type, len(dst.TypeDefs))
	for _, t := range dst.TypeDefs {
		byName[t.Name()] = t
	}
	for _, t := range src.TypeDefs {
		prev, ok := byName[t.Name()]
		if !ok {
			dst.TypeDefs = append(dst.TypeDefs, t)
			continue
		}
		if !typeEqual(prev, t) {
			return fmt.Errorf("conflicting definitions of type %%%s", t.Name())
		}
	}
	return nil
}

func mergeGlobals(dst, src *ir.Module) {
	for _, g := range src.Globals {
		if existing := findGlobal(dst, g.Name()); existing != nil {
			replaceGlobal(dst, existing, g)
			continue
		}
		dst.Globals = append(dst.Globals, g)
	}
}

func mergeFuncs(dst, src *ir.Module) {
	for _, f := range src.Funcs {
		f.Parent = dst
		existing := findFunc(dst, f.Name())
		if existing == nil {
			dst.Funcs = append(dst.Funcs, f)
			continue
		}
		if len(f.Blocks) == 0 {
			// Declaration in the patch; dst's symbol stands.
			continue
		}
		replaceFunc(dst, existing, f)
	}
}

func replaceGlobal(m *ir.Module, old, new *ir.Global) {
	for i, g := range m.Globals {
		if g == old {
			m.Globals[i] = new
			return
		}
	}
}

func replaceFunc(m *ir.Module, old, new *ir.Func) {
	for i, f := range m.Funcs {
		if f == old {
			m.Funcs[i] = new
			return
		}
	}
}

// typeEqual reports structural equality between two types, treating
// same-named identified structs from different modules as the same type once
// their bodies match. The type grammar used by semantics modules is small
// (ints, pointers, arrays, structs, function types), so the comparison is
// written out rather than delegated to string forms, which print identified
// structs by name only.
func typeEqual(a, b types.Type) bool {
	switch at := a.(type) {
	case *types.IntType:
		bt, ok := b.(*types.IntType)
		return ok && at.BitSize == bt.BitSize
	case *types.PointerType:
		bt, ok := b.(*types.PointerType)
		return ok && typeEqual(at.ElemType, bt.ElemType)
	case *types.ArrayType:
		bt, ok := b.(*types.ArrayType)
		return ok && at.Len == bt.Len && typeEqual(at.ElemType, bt.ElemType)
	case *types.StructType:
		bt, ok := b.(*types.StructType)
		if !ok || len(at.Fields) != len(bt.Fields) || at.Packed != bt.Packed {
			return false
		}
		if at == bt {
			return true
		}
		// Same-named identified structs: compare one level of fields. The
		// field grammar is non-recursive, so this terminates.
		for i := range at.Fields {
			if !typeEqual(at.Fields[i], bt.Fields[i]) {
				return false
			}
		}
		return true
	case *types.FuncType:
		bt, ok := b.(*types.FuncType)
		if !ok || at.Variadic != bt.Variadic || len(at.Params) != len(bt.Params) {
			return false
		}
		if !typeEqual(at.RetType, bt.RetType) {
			return false
		}
		for i := range at.Params {
			if !typeEqual(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return true
	case *types.VoidType:
		_, ok := b.(*types.VoidType)
		return ok
	default:
		return a.Equal(b)
	}
}
