// Package store defines the persistence interfaces for tasks, categories,
// and questions, plus the shared error taxonomy their implementations map
// database failures onto. Keeping these as interfaces leaves the task and
// content services independent of the actual database technology.
package store
