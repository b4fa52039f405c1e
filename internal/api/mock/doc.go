// Package mock provides a configurable fake of api.Client for tests.
//
// Each method delegates to an optional function field (ListSuitesFunc,
// CreateCaseFunc, ...). Unset fields fall back to simple defaults: list calls
// return nothing, creations return the entity with a fresh id, deletes
// succeed. Every call is counted by method name.
package mock
