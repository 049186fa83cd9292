// Package csync provides thread-safe concurrent data structures.
//
// This package implements generic, thread-safe versions of the two
// collection shapes the engine shares across goroutines: maps (listener
// ownership tables, ancestor reference counts) and slices (the "last
// results" and "last boxes" snapshots). All operations are protected by
// read-write mutexes.
//
// Example usage:
//
//	// Thread-safe map
//	hooks := csync.NewMap[host.Container, *scrollHook]()
//	hooks.Set(container, hook)
//	if hook, exists := hooks.Get(container); exists {
//		// Use hook safely
//	}
//
//	// Thread-safe slice used as an atomically replaceable snapshot
//	boxes := csync.NewSlice[render.Box]()
//	boxes.Replace(newBoxes)
//	for _, b := range boxes.All() {
//		draw(b)
//	}
package csync
