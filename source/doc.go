// Package source defines the adapters that collect raw news candidates.
//
// An Adapter fetches RawArticles for one entity. Errors are entity scoped:
// a failing adapter never affects other entities. Multi combines several
// adapters and only fails when all of them fail.
//
// Concrete adapters live in subpackages:
//   - rss: Google News RSS search feeds
//   - newsapi: the NewsAPI /v2/everything endpoint
package source
