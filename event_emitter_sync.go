package libevents

import "sync"

// SyncEmitter is an Emitter guarded by a RWMutex, for owners that register or
// emit from several goroutines. Listeners still run inline in the emitting
// goroutine, outside the lock, so a listener may register new listeners.
type SyncEmitter struct {
	emitter Emitter
	lock    sync.RWMutex
}

// NewSyncEmitter creates a new SyncEmitter and returns a pointer to it.
func NewSyncEmitter(opts ...Option) *SyncEmitter {
	return &SyncEmitter{emitter: *NewEmitter(opts...)}
}

func (s *SyncEmitter) On(name string, fn any) error {
	tag, err := TagOfFunc(fn)
	if err != nil {
		return wrapErrInvalidListener(err, name)
	}
	s.add(name, newListener(tag, fn))
	return nil
}

func (s *SyncEmitter) Emit(name string, args ...any) {
	emitArgs(s.snapshot(name), args)
}

func (s *SyncEmitter) ListenerCount(name string) int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.emitter.ListenerCount(name)
}

func (s *SyncEmitter) EventNames() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.emitter.EventNames()
}

func (s *SyncEmitter) add(name string, l *listener) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.emitter.add(name, l)
}

func (s *SyncEmitter) snapshot(name string) []*listener {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.emitter.snapshot(name)
}
