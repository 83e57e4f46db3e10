// Package internal holds code private to the noted module.
//
//   - apitest: in-memory notes API used by tests, the demo and the load test
//   - logging: slog construction shared by the commands
package internal
