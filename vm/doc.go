// Package vm implements the mirrow stack machine.
//
// This package contains:
//   - Tagged value representation and the instruction set
//   - The compiled artifact format consumed by the interpreter
//   - The fetch-execute loop with frame and call management
//   - An arena heap with a mark-sweep-compact collector
//   - Diagnostic dumps and CBOR state snapshots
package vm
