package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrKeyExists   = errors.New("db: key already exists")
	ErrUnavailable = errors.New("db: unavailable")
)

// Op constants name the failing command for error context.
const (
	OpGet  = "GET"
	OpMGet = "MGET"
	OpSet  = "SET"
	OpIncr = "INCR"
	OpDel  = "DEL"
	OpXAdd = "XADD"

	OpInsert      = "insert"
	OpFind        = "find"
	OpCount       = "count"
	OpUpdate      = "update"
	OpFindModify  = "findAndModify"
	OpDelete      = "delete"
	OpCreateIndex = "createIndexes"
	OpDrop        = "drop"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
