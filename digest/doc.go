// Package digest builds and renders the priority-ordered news digest.
//
// Builder flattens the unique articles of every EntityRun, ranks them with
// scoring.Ranker and splits them at the high-priority cutoff. The resulting
// core.Digest is never modified afterwards. RenderMarkdown and RenderHTML
// turn a digest into text for notifiers.
package digest
