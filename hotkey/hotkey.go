// Package hotkey registers a global key combination via a low level keyboard
// hook and fires a callback when every key of the combination is held at once.
package hotkey

import (
	"fmt"
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// chord is a parsed combination: one rawcode set per key, where any rawcode
// in a set satisfies that key (left/right modifier variants).
type chord struct {
	names    []string
	rawcodes [][]uint16
}

// Parse validates a combination like "Ctrl+Alt+T". It fails on empty input or
// on any key name that has no known virtual-key mapping, which lets the caller
// fall back to a safer default combination.
func Parse(combo string) error {
	_, err := parseChord(combo)
	return err
}

// Listen starts the global keyboard hook and invokes callback every time the
// full combination is pressed. The hook runs for the life of the process;
// callback must not block.
func Listen(combo string, callback func()) error {
	ch, err := parseChord(combo)
	if err != nil {
		return err
	}

	go run(ch, combo, callback)
	return nil
}

func run(ch chord, combo string, callback func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Hotkey: listener panicked: %v", r)
		}
	}()

	evChan := gohook.Start()
	if evChan == nil {
		log.Printf("Hotkey: keyboard hook failed to start")
		return
	}
	log.Printf("Hotkey: listening for %s", combo)

	var mu sync.Mutex
	pressed := make([]bool, len(ch.rawcodes))

	for ev := range evChan {
		if ev.Kind != gohook.KeyDown && ev.Kind != gohook.KeyUp {
			continue
		}

		mu.Lock()
		idx := ch.match(ev.Rawcode)
		if idx < 0 {
			mu.Unlock()
			continue
		}

		if ev.Kind == gohook.KeyUp {
			pressed[idx] = false
			mu.Unlock()
			continue
		}

		pressed[idx] = true
		all := true
		for _, p := range pressed {
			if !p {
				all = false
				break
			}
		}
		if all {
			// Reset before firing so holding the chord does not re-trigger
			// on key repeat.
			for i := range pressed {
				pressed[i] = false
			}
		}
		mu.Unlock()

		if all && callback != nil {
			callback()
		}
	}
	log.Printf("Hotkey: event channel closed")
}

func (c chord) match(rawcode uint16) int {
	for i, codes := range c.rawcodes {
		for _, rc := range codes {
			if rc == rawcode {
				return i
			}
		}
	}
	return -1
}

func parseChord(combo string) (chord, error) {
	var ch chord
	for _, part := range strings.Split(combo, "+") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		codes := rawcodesFor(name)
		if len(codes) == 0 {
			return chord{}, fmt.Errorf("unknown key %q in hotkey %q", part, combo)
		}
		ch.names = append(ch.names, name)
		ch.rawcodes = append(ch.rawcodes, codes)
	}
	if len(ch.names) == 0 {
		return chord{}, fmt.Errorf("empty hotkey")
	}
	return ch, nil
}

// rawcodesFor maps a key name to its Windows virtual-key codes. Modifiers map
// to both their left and right variants.
func rawcodesFor(name string) []uint16 {
	switch name {
	case "ctrl":
		return []uint16{162, 163} // VK_LCONTROL, VK_RCONTROL
	case "alt":
		return []uint16{164, 165} // VK_LMENU, VK_RMENU
	case "shift":
		return []uint16{160, 161} // VK_LSHIFT, VK_RSHIFT
	case "win", "cmd", "super":
		return []uint16{91, 92} // VK_LWIN, VK_RWIN
	case "space":
		return []uint16{32}
	case "enter", "return":
		return []uint16{13}
	case "esc", "escape":
		return []uint16{27}
	case "tab":
		return []uint16{9}
	case "backspace":
		return []uint16{8}
	case "delete", "del":
		return []uint16{46}
	case "insert", "ins":
		return []uint16{45}
	case "home":
		return []uint16{36}
	case "end":
		return []uint16{35}
	case "pageup", "pgup":
		return []uint16{33}
	case "pagedown", "pgdn":
		return []uint16{34}
	case "left":
		return []uint16{37}
	case "up":
		return []uint16{38}
	case "right":
		return []uint16{39}
	case "down":
		return []uint16{40}
	}

	// Letters a-z and digits 0-9 share their ASCII uppercase codes.
	if len(name) == 1 {
		c := name[0]
		if c >= 'a' && c <= 'z' {
			return []uint16{uint16(c - 'a' + 'A')}
		}
		if c >= '0' && c <= '9' {
			return []uint16{uint16(c)}
		}
	}

	// Function keys F1-F24 start at VK_F1 = 112.
	if strings.HasPrefix(name, "f") {
		var n int
		if _, err := fmt.Sscanf(name, "f%d", &n); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)}
		}
	}

	return nil
}
