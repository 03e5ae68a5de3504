package migration

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	hooksMu sync.RWMutex
	hooks   = make(map[string]Hook)
)

// RegisterHook registers a named hook function for use by .hook migrations.
// Registration typically happens from an init function or early in main,
// before migrations are loaded.
//
// Example usage:
//
//	func init() {
//		migration.MustRegisterHook("backfill_users", func(ctx context.Context, db migration.Executor) error {
//			return db.Execute(ctx, "UPDATE users SET active = true WHERE active = null")
//		})
//	}
func RegisterHook(name string, hook Hook) error {
	if name == "" {
		return errors.New("hook name must not be empty")
	}
	if hook == nil {
		return errors.Errorf("hook %s must not be nil", name)
	}

	hooksMu.Lock()
	defer hooksMu.Unlock()

	if _, ok := hooks[name]; ok {
		return errors.Errorf("hook already registered: %s", name)
	}

	hooks[name] = hook
	return nil
}

// MustRegisterHook registers a named hook and panics on error. Intended for
// use from init functions.
func MustRegisterHook(name string, hook Hook) {
	if err := RegisterHook(name, hook); err != nil {
		panic(err)
	}
}

// LookupHook returns the hook registered under name, if any.
func LookupHook(name string) (Hook, bool) {
	hooksMu.RLock()
	defer hooksMu.RUnlock()

	hook, ok := hooks[name]
	return hook, ok
}
