// Copyright (c) 2026 Scriptorium. All rights reserved.

/*
Package slice holds the generic slice transforms the standard [slices] package
stops short of: Map and Filter.
*/
package slice

// Map applies transform to every element, returning a slice of the results.
func Map[T any, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, len(input))
	for i, v := range input {
		result[i] = transform(v)
	}

	return result
}

// Filter returns the elements for which predicate is true.
func Filter[T any, S ~[]T](input S, predicate func(T) bool) S {
	if input == nil {
		return nil
	}

	var result S
	for _, v := range input {
		if predicate(v) {
			result = append(result, v)
		}
	}

	return result
}
