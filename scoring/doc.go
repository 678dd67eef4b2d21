// Package scoring assigns relevance and priority scores to news articles.
//
// Scorer maps an article's title and snippet to a relevance score in [0, 15]
// using fixed keyword categories and stock-movement patterns, and decides
// whether the article clears the acceptance floor. Ranker derives a secondary
// priority score used only to order the digest.
//
// Both are pure: no I/O, no shared mutable state, identical input always
// yields identical output.
package scoring
