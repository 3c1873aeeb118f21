package hash

// ---------------------------------------------------------------------------
// Frozen tag bytes for the hashing AST serialization format.
//
// IMPORTANT: These tags are FROZEN. Once assigned, a tag byte must never
// change meaning. Adding new tags is fine; changing existing ones breaks
// all previously computed content hashes.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format.
// Bumping this invalidates all existing content hashes.
const HashVersion byte = 1

// AST node type tags. Each tag uniquely identifies a node kind in the
// serialized byte stream.
const (
	TagReservedZero byte = 0x00 // version prefix / reserved

	// Literal values
	TagNumberLiteral byte = 0x01
	TagStringLiteral byte = 0x02
	TagBoolLiteral   byte = 0x03
	TagArrayLiteral  byte = 0x04

	// Variable references (de Bruijn indexed)
	TagLocalVarRef byte = 0x0B
	TagGlobalRef   byte = 0x0D

	// Expressions
	TagUnary  byte = 0x10
	TagBinary byte = 0x11
	TagCall   byte = 0x12
	TagIf     byte = 0x14

	// Statements / structure
	TagLet      byte = 0x18
	TagFuncDef  byte = 0x19
	TagExprStmt byte = 0x1C

	// Reserved 0xFE-0xFF
)

// allTags lists every defined tag for uniqueness verification in tests.
var allTags = []byte{
	TagReservedZero,
	TagNumberLiteral, TagStringLiteral, TagBoolLiteral, TagArrayLiteral,
	TagLocalVarRef, TagGlobalRef,
	TagUnary, TagBinary, TagCall, TagIf,
	TagLet, TagFuncDef, TagExprStmt,
}
