// Package decorators implements the annotations applied to operations:
// cursor pagination validation and the client generator metadata stamped on
// every operation.
package decorators
