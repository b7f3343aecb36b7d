package graph

import (
	"crypto/sha1"
	"encoding/hex"
)

// idHashLen is the number of hex characters kept from the digest.
const idHashLen = 8

// SymbolID returns the content-addressed id of a symbol: the kind's initial
// followed by the first hex characters of sha1("kind:qualifiedName:file").
// Methods use "Class.method" as their qualified name.
func SymbolID(kind NodeKind, qualifiedName, file string) string {
	sum := sha1.Sum([]byte(string(kind) + ":" + qualifiedName + ":" + file))
	return string(kind)[:1] + hex.EncodeToString(sum[:])[:idHashLen]
}
