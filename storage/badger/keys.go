package badger

import (
	"fmt"

	"github.com/poiesic/newswire/core"
)

// Key prefixes for different data types
const (
	articlePrefix = "art"
)

// scopeHash turns an entity name into a fixed width key segment, so entity
// names containing the separator cannot bleed into each other's ranges.
func scopeHash(scope string) string {
	return fmt.Sprintf("%016x", uint64(core.IDFromContent(scope)))
}

// makeScopePrefix generates the key prefix covering every article of scope.
// Format: prefix:scopehash:
func makeScopePrefix(scope string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", articlePrefix, scopeHash(scope)))
}

// makeArticleKey generates a key for an article by scope and ID.
// Format: prefix:scopehash:id
func makeArticleKey(scope, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", articlePrefix, scopeHash(scope), id))
}

// makeArticlesPrefix generates the prefix covering all articles in all scopes.
func makeArticlesPrefix() []byte {
	return []byte(articlePrefix + ":")
}
