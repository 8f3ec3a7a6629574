// Package board holds the dashboard's named fields: read-only I/O displays,
// operator-editable calibration fields and status lines.
//
// Projector writes to an editable field the operator has changed are held
// back until the edit is committed or reverted, so an edit in progress
// survives the device's periodic snapshots.
package board

import (
	"errors"
	"fmt"
	"sync"

	"github.com/modbee/modbee-dash/pkg/render"
)

// Board errors.
var (
	ErrUnknownField = errors.New("unknown field")
	ErrNotEditable  = errors.New("field is not editable")
)

// Kind classifies a field.
type Kind uint8

const (
	// KindDisplay is a read-only I/O value.
	KindDisplay Kind = iota

	// KindEditable is an operator-editable calibration value.
	KindEditable

	// KindStatus is a status line.
	KindStatus
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDisplay:
		return "display"
	case KindEditable:
		return "editable"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Field is a point-in-time copy of one board field.
type Field struct {
	Name  string
	Kind  Kind
	Value string

	// Edited is true while the operator holds an uncommitted edit.
	Edited bool
}

type field struct {
	kind   Kind
	value  string
	device string
	edited bool
}

// Board is a set of named fields. It is safe for concurrent use.
type Board struct {
	mu     sync.RWMutex
	fields map[string]*field
	order  []string
}

// New creates a board with every standard dashboard target.
func New() *Board {
	b := &Board{fields: make(map[string]*field)}
	b.add(KindStatus, render.StatusTargets()...)
	b.add(KindDisplay, render.DisplayTargets()...)
	b.add(KindEditable, render.EditableFields()...)
	return b
}

// NewWithFields creates a board with only the given fields.
func NewWithFields(fields map[string]Kind) *Board {
	b := &Board{fields: make(map[string]*field)}
	for name, kind := range fields {
		b.add(kind, name)
	}
	return b
}

func (b *Board) add(kind Kind, names ...string) {
	for _, name := range names {
		if _, ok := b.fields[name]; ok {
			continue
		}
		b.fields[name] = &field{kind: kind}
		b.order = append(b.order, name)
	}
}

// Set writes a value from the device side. It reports whether the field
// exists. An editable field with an uncommitted edit keeps the operator's
// value; the device value is remembered for Revert.
func (b *Board) Set(target, value string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.fields[target]
	if !ok {
		return false
	}
	f.device = value
	if !f.edited {
		f.value = value
	}
	return true
}

// Get returns the current value of a field.
func (b *Board) Get(name string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	f, ok := b.fields[name]
	if !ok {
		return "", false
	}
	return f.value, true
}

// Edit sets an editable field on behalf of the operator.
func (b *Board) Edit(name, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.fields[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if f.kind != KindEditable {
		return fmt.Errorf("%w: %s", ErrNotEditable, name)
	}
	f.value = value
	f.edited = true
	return nil
}

// Commit ends every edit in progress. The edited values stay until the next
// device write replaces them.
func (b *Board) Commit() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, f := range b.fields {
		f.edited = false
	}
}

// Revert discards every edit in progress and restores the last device values.
func (b *Board) Revert() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, f := range b.fields {
		if f.edited {
			f.value = f.device
			f.edited = false
		}
	}
}

// Edited returns the names of fields with an uncommitted edit.
func (b *Board) Edited() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []string
	for _, name := range b.order {
		if b.fields[name].edited {
			out = append(out, name)
		}
	}
	return out
}

// Fields returns a copy of every field of the given kinds in board order.
// With no kinds, all fields are returned.
func (b *Board) Fields(kinds ...Kind) []Field {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Field
	for _, name := range b.order {
		f := b.fields[name]
		if len(kinds) > 0 && !hasKind(kinds, f.kind) {
			continue
		}
		out = append(out, Field{Name: name, Kind: f.kind, Value: f.value, Edited: f.edited})
	}
	return out
}

func hasKind(kinds []Kind, k Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

var _ render.Display = (*Board)(nil)
