// Package clipboard delivers finished translations to the system clipboard.
package clipboard

import (
	"sync"

	"golang.design/x/clipboard"
)

var writeMu sync.Mutex

// Init must be called once before Write. It fails on platforms without
// clipboard support; callers should degrade to overlay-only delivery.
func Init() error {
	return clipboard.Init()
}

// Write performs a mutex-guarded clipboard write so a translation finishing
// while another is being copied cannot interleave.
func Write(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
