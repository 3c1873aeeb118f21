package hash

import (
	"crypto/sha256"

	"github.com/chazu/mirrow/compiler"
)

// HashFunction computes the SHA-256 content hash of a function declaration.
//
// The hash is computed over a deterministic serialization of the function's
// normalized AST with de Bruijn variable indexing. Two functions with the
// same body (ignoring parameter, local and own names) produce the same hash.
// Pipelines hash like the equivalent direct call.
func HashFunction(fn *compiler.FuncStmt) [32]byte {
	hf := NormalizeFunction(fn)
	data := Serialize(hf)
	return sha256.Sum256(data)
}
