// Package uvdata implements the streaming UV-data codec layered on a
// MIRIAD dataset: the vartable text format and the visdata record
// stream (SIZE/DATA/EOR framing).
package uvdata

import (
	"fmt"

	"github.com/miriadio/miriad/internal/core"
)

// MaxVariables is the largest number of distinct variables a vartable
// may hold; idents are dense 0..MaxVariables-1.
const MaxVariables = 256

// VisdataAlign is the byte alignment every visdata record starts at.
const VisdataAlign = 8

// Variable is one entry of the vartable: a name, its type, and the
// codec's cached view of its current value.
type Variable struct {
	Name  string
	Ident int
	Type  core.Type

	nvals int    // -1 until the first SIZE record
	cache []byte // current value, host order, len == nvals*Type.Size()
}

// NVals reports the variable's current element count, or -1 if no SIZE
// record (write side: no write_var call) has been seen yet.
func (v *Variable) NVals() int { return v.nvals }

// Value returns the variable's cached current value (host order). Valid
// only after a DATA record has been read, or after write_var.
func (v *Variable) Value() []byte { return v.cache }

// varTable is the in-memory, insertion-ordered set of variables shared
// by the reader and writer.
type varTable struct {
	vars  []*Variable
	index map[string]int
	dirty bool
}

func newVarTable() *varTable {
	return &varTable{index: make(map[string]int)}
}

func (t *varTable) byName(name string) *Variable {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.vars[i]
}

func (t *varTable) byIdent(ident int) *Variable {
	if ident < 0 || ident >= len(t.vars) {
		return nil
	}
	return t.vars[ident]
}

// add appends a new variable, assigning it the next dense ident.
func (t *varTable) add(name string, typ core.Type) (*Variable, error) {
	if len(t.vars) >= MaxVariables {
		return nil, fmt.Errorf("%w: variable table is full (%d variables)", core.ErrFormat, MaxVariables)
	}
	v := &Variable{Name: name, Ident: len(t.vars), Type: typ, nvals: -1}
	t.index[name] = len(t.vars)
	t.vars = append(t.vars, v)
	t.dirty = true
	return v, nil
}

// List returns every variable in ident order.
func (t *varTable) List() []*Variable {
	out := make([]*Variable, len(t.vars))
	copy(out, t.vars)
	return out
}
