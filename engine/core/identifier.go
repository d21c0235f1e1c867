package core

import (
	"fmt"
	"sync"
)

// maxDenseID bounds the slice backing reserved ids. Larger ids read back
// from documents are kept in a map so a single big id cannot allocate
// billions of slots.
const maxDenseID = 4096

// Identifier hands out small integer ids, reusing released slots first.
type Identifier struct {
	mutex  sync.Mutex
	owners []interface{}
	sparse map[uint32]interface{}
}

func NewIdentifier() *Identifier {
	return &Identifier{}
}

func (id *Identifier) AquireNewID(owner interface{}) uint32 {
	id.mutex.Lock()
	defer id.mutex.Unlock()

	if len(id.owners) == 0 {
		id.owners = make([]interface{}, 100)
	}
	length := uint32(len(id.owners))
	for i := uint32(0); i < length; i++ {
		// Existing free spot. Take it.
		if id.owners[i] == nil && id.sparse[i] == nil {
			id.owners[i] = owner
			return i
		}
	}

	// If here, no existing free slots. Need a new id, so push one.
	// This means the id will be length - 1, skipping sparse reservations.
	for id.sparse[uint32(len(id.owners))] != nil {
		id.owners = append(id.owners, nil)
	}
	id.owners = append(id.owners, owner)
	length = uint32(len(id.owners))
	return length - 1
}

// Reserve claims a specific id, e.g. one read back from a serialized document.
func (id *Identifier) Reserve(value uint32, owner interface{}) error {
	id.mutex.Lock()
	defer id.mutex.Unlock()

	_, isSparse := id.sparse[value]
	if isSparse || (value >= maxDenseID && value >= uint32(len(id.owners))) {
		if current := id.sparse[value]; current != nil && current != owner {
			return fmt.Errorf("identifier_reserve: id '%d' is already taken", value)
		}
		if id.sparse == nil {
			id.sparse = make(map[uint32]interface{})
		}
		id.sparse[value] = owner
		return nil
	}

	for uint32(len(id.owners)) <= value {
		id.owners = append(id.owners, nil)
	}
	if current := id.owners[value]; current != nil && current != owner {
		return fmt.Errorf("identifier_reserve: id '%d' is already taken", value)
	}
	id.owners[value] = owner
	return nil
}

func (id *Identifier) ReleaseID(value uint32) error {
	id.mutex.Lock()
	defer id.mutex.Unlock()

	if _, ok := id.sparse[value]; ok {
		delete(id.sparse, value)
		return nil
	}

	if len(id.owners) == 0 {
		err := fmt.Errorf("identifier_release_id called before initialization. identifier_aquire_new_id should have been called first. Nothing was done")
		return err
	}

	length := uint32(len(id.owners))
	if value >= length {
		err := fmt.Errorf("identifier_release_id: id '%d' out of range (max=%d). Nothing was done", value, length)
		return err
	}

	// Just zero out the entry, making it available for use.
	id.owners[value] = nil
	return nil
}
