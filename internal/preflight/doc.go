// Package preflight provides readiness checks for the filesystem paths and
// listen address scribe depends on.
//
// These checks run in two contexts:
//   - "scribe serve" runs them before binding and logs every failure.
//   - "scribe check" prints them next to the dependency table.
package preflight
