// Package history keeps the undo and redo stacks for byte edits.
//
// Every entry describes a single-byte edit at a logical address. The undo
// stack holds the value needed to revert an edit; the redo stack holds the
// value needed to apply it again.
package history

import (
	"errors"
	"fmt"

	"github.com/kobzarvs/hexed/internal/bytestore"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Kind is the kind of edit an entry records.
type Kind int

const (
	Modification Kind = iota
	Insertion
	Deletion
)

func (k Kind) String() string {
	switch k {
	case Modification:
		return "modification"
	case Insertion:
		return "insertion"
	case Deletion:
		return "deletion"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entry is one recorded edit. Value is unused for Insertion entries on the
// undo stack, since nothing existed before the byte was inserted.
// After is the cursor the edit left behind; it is only meaningful when
// HasAfter is set.
type Entry struct {
	Kind     Kind
	Address  uint64
	Value    byte
	After    uint64
	HasAfter bool
}

// Store is the part of the byte store the history needs.
type Store interface {
	ByteAt(address uint64) (byte, error)
	PutByte(address uint64, value byte, mode bytestore.Mode) error
	DeleteByte(address uint64) error
}

// Cursor is the part of the viewport the history moves after an edit.
type Cursor interface {
	JumpTo(address uint64)
	JumpToNibble(nibble uint64)
	ChangeCursor(delta int64)
}

type History struct {
	undo []Entry
	redo []Entry
}

func New() *History {
	return &History{}
}

func (h *History) UndoLen() int { return len(h.undo) }
func (h *History) RedoLen() int { return len(h.redo) }

// Clear drops both stacks.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}

// Record must be called before the edit is applied to the store: it reads
// the byte about to change. Any new edit clears the redo stack.
func (h *History) Record(store Store, kind Kind, address uint64) error {
	e := Entry{Kind: kind, Address: address}
	if kind != Insertion {
		v, err := store.ByteAt(address)
		if err != nil {
			return fmt.Errorf("record %s: %w", kind, err)
		}
		e.Value = v
	}
	h.undo = append(h.undo, e)
	h.redo = h.redo[:0]
	return nil
}

// MarkCursor notes where the cursor ended after the most recently recorded
// edit, so that Redo can put it back there.
func (h *History) MarkCursor(nibble uint64) {
	if len(h.undo) == 0 {
		return
	}
	top := &h.undo[len(h.undo)-1]
	top.After, top.HasAfter = nibble, true
}

// Undo reverts the most recent edit and moves the cursor onto it.
func (h *History) Undo(store Store, cursor Cursor) error {
	if len(h.undo) == 0 {
		return ErrNothingToUndo
	}
	e := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]

	inverse, nibble, err := apply(store, e, false)
	if err != nil {
		h.undo = append(h.undo, e)
		return fmt.Errorf("undo %s at 0x%x: %w", e.Kind, e.Address, err)
	}
	inverse.After, inverse.HasAfter = e.After, e.HasAfter
	h.redo = append(h.redo, inverse)
	cursor.JumpToNibble(nibble)
	return nil
}

// Redo re-applies the most recently undone edit. The cursor ends where the
// original edit left it. Entries without a marked cursor land one nibble
// past the edit, or on it for deletions.
func (h *History) Redo(store Store, cursor Cursor) error {
	if len(h.redo) == 0 {
		return ErrNothingToRedo
	}
	e := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]

	inverse, nibble, err := apply(store, e, true)
	if err != nil {
		h.redo = append(h.redo, e)
		return fmt.Errorf("redo %s at 0x%x: %w", e.Kind, e.Address, err)
	}
	inverse.After, inverse.HasAfter = e.After, e.HasAfter
	h.undo = append(h.undo, inverse)
	switch {
	case e.HasAfter:
		cursor.JumpToNibble(e.After)
	case e.Kind == Deletion:
		cursor.JumpToNibble(nibble)
	default:
		cursor.JumpToNibble(nibble)
		cursor.ChangeCursor(1)
	}
	return nil
}

// UndoAll reverts every recorded edit.
func (h *History) UndoAll(store Store, cursor Cursor) error {
	for len(h.undo) > 0 {
		if err := h.Undo(store, cursor); err != nil {
			return err
		}
	}
	return nil
}

// apply runs e against the store, backwards for undo entries and forwards
// for redo entries. It returns the entry for the opposite stack and the
// nibble the cursor should land on.
func apply(store Store, e Entry, forward bool) (Entry, uint64, error) {
	nibble := e.Address * 2
	switch e.Kind {
	case Modification:
		cur, err := store.ByteAt(e.Address)
		if err != nil {
			return Entry{}, 0, err
		}
		if err := store.PutByte(e.Address, e.Value, bytestore.Overwrite); err != nil {
			return Entry{}, 0, err
		}
		if cur>>4 == e.Value>>4 {
			nibble++
		}
		return Entry{Kind: Modification, Address: e.Address, Value: cur}, nibble, nil

	case Insertion:
		if forward {
			if err := store.PutByte(e.Address, e.Value, bytestore.Insert); err != nil {
				return Entry{}, 0, err
			}
			return Entry{Kind: Insertion, Address: e.Address}, nibble, nil
		}
		cur, err := store.ByteAt(e.Address)
		if err != nil {
			return Entry{}, 0, err
		}
		if err := store.DeleteByte(e.Address); err != nil {
			return Entry{}, 0, err
		}
		return Entry{Kind: Insertion, Address: e.Address, Value: cur}, nibble, nil

	case Deletion:
		if forward {
			if err := store.DeleteByte(e.Address); err != nil {
				return Entry{}, 0, err
			}
		} else if err := store.PutByte(e.Address, e.Value, bytestore.Insert); err != nil {
			return Entry{}, 0, err
		}
		return e, nibble, nil
	}
	return Entry{}, 0, fmt.Errorf("unknown %s", e.Kind)
}
