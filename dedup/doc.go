// Package dedup drops articles that repeat stories already in the semantic index.
//
// An article is a duplicate when any neighbour returned by the index for its
// title and snippet, within the article's entity, scores at or above the
// threshold (0.85 by default). When the index cannot be queried the article
// is kept: a missed duplicate is preferred over a lost story.
//
// Within one FilterUnique call an article is also dropped when its normalized
// URL or title fingerprint equals that of an article accepted earlier in the
// same batch. Near-duplicates inside a batch are not compared semantically.
package dedup
