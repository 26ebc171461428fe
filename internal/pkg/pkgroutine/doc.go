// Package pkgroutine runs background work with bounded concurrency.
//
// Panics are recovered and logged so a failing task never takes the process
// down with it.
package pkgroutine
