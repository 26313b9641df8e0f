package applayer

import (
	"testing"

	"github.com/packetflux/applayer/memview"
)

func TestResultPool_ReusesReturnedElements(t *testing.T) {
	pool := newResultPool(2)

	e1 := pool.get()
	e1.FieldID = 7
	e1.Data = memview.New([]byte("hello"))
	pool.put(e1)

	e2 := pool.get()
	if e2 != e1 {
		t.Fatalf("expected the freed element to be reused")
	}
	if e2.FieldID != NoField {
		t.Errorf("FieldID = %d, want reset to NoField", e2.FieldID)
	}
	if e2.Data.Len() != 0 {
		t.Errorf("Data should be reset to empty")
	}
}

func TestResultPool_GrowsPastCapacity(t *testing.T) {
	pool := newResultPool(1)
	a := pool.get()
	b := pool.get()
	if a == b {
		t.Fatalf("expected two distinct elements when the pool is empty")
	}
}

func TestResultList_AppendAndEach(t *testing.T) {
	pool := newResultPool(4)
	list := &ResultList{}

	for i := 0; i < 3; i++ {
		e := pool.get()
		e.FieldID = FieldID(i + 1)
		list.append(e)
	}
	if list.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", list.Len())
	}

	var seen []FieldID
	list.Each(func(e *ResultElement) { seen = append(seen, e.FieldID) })
	for i, id := range seen {
		if id != FieldID(i+1) {
			t.Errorf("seen[%d] = %d, want %d", i, id, i+1)
		}
	}
}

// putAll returns every element to the pool and empties the list, matching
// the invariant that every acquired element has a matching return before a
// parse call completes.
func TestResultPool_PutAllDrainsList(t *testing.T) {
	pool := newResultPool(4)
	list := &ResultList{}
	for i := 0; i < 3; i++ {
		list.append(pool.get())
	}

	pool.putAll(list)
	if list.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after putAll", list.Len())
	}
	if list.head != nil || list.tail != nil {
		t.Errorf("expected head/tail to be cleared")
	}
}

func TestResultElement_ResetReleasesOwnedBuffer(t *testing.T) {
	bufPool, err := newTestBufPool()
	if err != nil {
		t.Fatalf("newTestBufPool: %v", err)
	}
	buf := bufPool.NewBuffer()
	if _, err := buf.Write([]byte("owned")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	e := &ResultElement{FieldID: 1, Owned: true, ownedBuf: buf, Data: buf.Bytes()}
	e.reset()

	if e.FieldID != NoField || e.Owned || e.ownedBuf != nil {
		t.Errorf("reset did not clear all fields: %+v", e)
	}
}
