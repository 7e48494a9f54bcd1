//
// executor.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package actor

// Executor starts background tasks.
type Executor interface {
	// Spawn runs fn in a new task. It returns an error if the task
	// could not be started.
	Spawn(fn func()) error
}

// GoExecutor runs each task in its own goroutine.
type GoExecutor struct{}

// Spawn implements Executor.Spawn.
func (GoExecutor) Spawn(fn func()) error {
	go fn()
	return nil
}
