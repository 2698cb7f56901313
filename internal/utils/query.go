// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// Int64Default converts a string to an int64 using strconv.ParseInt.
// If the string is empty or cannot be parsed, it returns the provided
// default value instead. Sync cursors are millisecond timestamps, so the
// full 64-bit range must survive parsing on every platform.
//
// Example:
//
//	n := utils.Int64Default("1724601600000", 0) // returns 1724601600000
//	n = utils.Int64Default("", 10)              // returns 10
//	n = utils.Int64Default("x", 5)              // returns 5
func Int64Default(s string, def int64) int64 {
	if s == "" {
		return def
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return def
}
