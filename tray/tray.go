// Package tray keeps the resident application visible: a system tray entry
// with a Translate action mirroring the global hotkey, and Quit.
package tray

import (
	"log"
	"sync/atomic"

	"github.com/getlantern/systray"
)

const defaultTooltip = "Screen Translate"

var (
	ready     atomic.Bool
	onTrigger func()
	onQuit    func()
)

// Run starts the systray loop. It blocks until Quit is chosen, so callers run
// it on the main goroutine and do the rest of their work elsewhere. trigger is
// invoked when the Translate menu item is clicked; quit when Quit is chosen.
func Run(trigger, quit func()) {
	onTrigger = trigger
	onQuit = quit
	systray.Run(onReady, onExit)
}

// Quit dismisses the tray entry and unblocks Run.
func Quit() {
	systray.Quit()
}

// UpdateTooltip replaces the tray tooltip, typically to reflect pipeline
// activity. Safe to call before the tray is up; the call is dropped.
func UpdateTooltip(text string) {
	if !ready.Load() {
		return
	}
	if text == "" {
		text = defaultTooltip
	}
	systray.SetTooltip(text)
}

func onReady() {
	systray.SetTitle("Screen Translate")
	systray.SetTooltip(defaultTooltip)
	if icon := iconBytes(); len(icon) > 0 {
		systray.SetIcon(icon)
	}

	mTranslate := systray.AddMenuItem("Translate region", "Select a region and translate it")
	mQuit := systray.AddMenuItem("Quit", "Exit the application")
	ready.Store(true)

	go func() {
		for {
			select {
			case <-mTranslate.ClickedCh:
				log.Printf("Tray: translate requested")
				if onTrigger != nil {
					onTrigger()
				}
			case <-mQuit.ClickedCh:
				systray.Quit()
			}
		}
	}()
}

func onExit() {
	ready.Store(false)
	if onQuit != nil {
		onQuit()
	}
}
