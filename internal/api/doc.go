// Package api provides the HTTP handlers for the task-management and
// quiz-content endpoints, mapping service results and errors onto the
// JSON response envelopes.
package api
