// Package repository contains explicit data-access functions over
// database/sql. Each aggregate gets an interface plus a Postgres
// implementation; memory implementations back DB-less development and
// service tests. No lazy loading: queries return plain domain structs.
package repository

import "errors"

// ErrNotFound covers both "row does not exist" and "row exists but belongs
// to another lender"; callers must not be able to tell the two apart.
var ErrNotFound = errors.New("not found")

// ErrInvalidTransition is returned when a contract status update is not
// ACTIVE -> FUNDED or ACTIVE -> CANCELLED. Checked inside the update
// transaction so a concurrent transition cannot slip through.
var ErrInvalidTransition = errors.New("invalid status transition")
