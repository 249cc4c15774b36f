package service

import "sync"

// slotLocker serializes uploads per (customer, document type) slot. Two
// concurrent uploads to the same slot would otherwise race on the
// archive-then-overwrite sequence and the version bump.
//
// Mutexes are kept for the life of the process; the map is bounded by the
// number of distinct slots ever uploaded to, which is small for this system.
type slotLocker struct {
	locks sync.Map // slot key -> *sync.Mutex
}

func newSlotLocker() *slotLocker {
	return &slotLocker{}
}

func (s *slotLocker) lock(customerID, documentTypeID string) func() {
	key := customerID + "\x00" + documentTypeID
	v, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
