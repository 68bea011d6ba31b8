// Package resource tracks the memory an index arena claims and throttles
// snapshot IO.
package resource
