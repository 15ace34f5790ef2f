package core

import (
	"github.com/google/uuid"
)

// Task is the unit of work executed on an EventLoop.
type Task func()

// TaskID identifies a single plugin or handler execution.
type TaskID uuid.UUID

// GenerateTaskID returns a new random TaskID.
func GenerateTaskID() TaskID {
	return TaskID(uuid.New())
}

func (id TaskID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether the id was never assigned.
func (id TaskID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}
