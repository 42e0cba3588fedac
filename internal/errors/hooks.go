package errors

import (
	"sync"
	"sync/atomic"
)

// ErrorHook is called for every built EnhancedError while registered
type ErrorHook func(ee *EnhancedError)

var (
	hooks          []ErrorHook
	hooksMu        sync.RWMutex
	hasActiveHooks atomic.Bool
)

// AddErrorHook registers a hook that observes built errors.
// Component and category detection only run while at least one hook is active.
func AddErrorHook(hook ErrorHook) {
	if hook == nil {
		return
	}
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks = append(hooks, hook)
	hasActiveHooks.Store(true)
}

// ClearErrorHooks removes all registered hooks
func ClearErrorHooks() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks = nil
	hasActiveHooks.Store(false)
}

func runHooks(ee *EnhancedError) {
	hooksMu.RLock()
	registered := make([]ErrorHook, len(hooks))
	copy(registered, hooks)
	hooksMu.RUnlock()

	for _, hook := range registered {
		hook(ee)
	}
}
