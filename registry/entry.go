package registry

import (
	"sync"

	"github.com/viant/sqlite-knn/classifier"
)

type cacheKey struct {
	dataset string
	k       int
}

// cacheEntry holds one fitted classifier and the dataset version it was
// fitted at. mu guards the fields and the build condition; use is held for
// reading around predictions and for writing around refits.
type cacheEntry struct {
	mu       sync.RWMutex
	clf      classifier.Classifier[int64]
	rows     int
	version  int64
	gen      uint64
	building bool
	cond     *sync.Cond

	use sync.RWMutex
}

func newCacheEntry() *cacheEntry {
	e := &cacheEntry{}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *cacheEntry) get() classifier.Classifier[int64] {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clf
}

func (e *cacheEntry) current() (classifier.Classifier[int64], int64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clf, e.version
}

func (e *cacheEntry) size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rows
}

func (e *cacheEntry) waitForBuild() classifier.Classifier[int64] {
	e.mu.Lock()
	for e.building {
		e.cond.Wait()
	}
	clf := e.clf
	e.mu.Unlock()
	return clf
}

// startBuild claims the build and returns the generation it must publish to.
func (e *cacheEntry) startBuild() (uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.clf != nil || e.building {
		return 0, false
	}
	e.building = true
	return e.gen, true
}

// finishBuild publishes clf unless the entry was invalidated meanwhile.
func (e *cacheEntry) finishBuild(clf classifier.Classifier[int64], rows int, version int64, gen uint64) {
	e.mu.Lock()
	e.building = false
	if clf != nil && gen == e.gen {
		e.clf = clf
		e.rows = rows
		e.version = version
	}
	e.cond.Broadcast()
	e.mu.Unlock()
}

func (e *cacheEntry) invalidate() {
	e.mu.Lock()
	e.clf = nil
	e.rows = 0
	e.gen++
	e.mu.Unlock()
}

// expire drops clf when it is still the published classifier.
func (e *cacheEntry) expire(clf classifier.Classifier[int64]) {
	e.mu.Lock()
	if e.clf == clf {
		e.clf = nil
		e.rows = 0
		e.gen++
	}
	e.mu.Unlock()
}

func (e *cacheEntry) refitted(rows int, version int64) {
	e.mu.Lock()
	e.rows = rows
	e.version = version
	e.mu.Unlock()
}
