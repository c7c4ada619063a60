// Package utils provides common utility functions for the license manager.
// It includes the type-coercion helpers used to normalize partner feed values
// (dual status representation, stringly-typed numerics) before comparison.
package utils
