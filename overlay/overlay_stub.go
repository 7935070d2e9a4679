//go:build !windows

package overlay

import "screen-translate-llm/snapshot"

type stubSurface struct{}

func newPlatformSurface() Surface { return stubSurface{} }

func (stubSurface) Show(*snapshot.Snapshot, Handler) error { return ErrUnsupported }
func (stubSurface) Apply(Frame)                            {}
func (stubSurface) Hide()                                  {}
func (stubSurface) Close()                                 {}
