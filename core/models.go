package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content fingerprint.
// It is generated by hashing normalized text so identical stories collapse to the same value.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ContentID fingerprints text after case folding and whitespace collapsing,
// so cosmetic differences between feeds do not produce different IDs.
func ContentID(text string) ID {
	return IDFromContent(strings.Join(strings.Fields(strings.ToLower(text)), " "))
}

// RawArticle is a candidate news item as returned by a source adapter.
// It carries no scores and no identifier.
type RawArticle struct {
	Title       string
	URL         string
	Snippet     string
	Source      string
	PublishedAt time.Time // Zero when the source did not report a date
}

// Article is a news item about a tracked entity.
// RelevanceScore is assigned once by the scorer and never recomputed downstream.
// ID stays empty until the article has been stored.
type Article struct {
	ID             string
	Title          string
	Snippet        string
	URL            string
	Source         string
	PublishedAt    time.Time
	Entity         string
	RelevanceScore float64
	PriorityScore  float64
}

// NewArticle lifts a raw candidate into an unscored Article for entity.
func NewArticle(raw RawArticle, entity string) Article {
	return Article{
		Title:       strings.TrimSpace(raw.Title),
		Snippet:     strings.TrimSpace(raw.Snippet),
		URL:         strings.TrimSpace(raw.URL),
		Source:      raw.Source,
		PublishedAt: raw.PublishedAt,
		Entity:      entity,
	}
}

// HasPublishedAt reports whether the publication time is known.
func (a *Article) HasPublishedAt() bool {
	return !a.PublishedAt.IsZero()
}

// SearchText returns the text used to look the article up in the semantic index.
func (a *Article) SearchText() string {
	return a.Title + " " + a.Snippet
}

// StoredArticle is the persisted form of an Article inside the semantic index.
type StoredArticle struct {
	Article
	ContentID ID
	Vector    []float32 // Normalized embedding of SearchText
	StoredAt  time.Time
}

// SimilarityMatch is a stored article returned by a nearest-neighbour query.
type SimilarityMatch struct {
	ArticleID string
	Score     float32
	Article   *Article
}

// Stage identifies a step of the per-entity pipeline.
type Stage int

const (
	// StageCollecting fetches raw candidates from the source adapter.
	StageCollecting Stage = iota + 1
	// StageScoring assigns relevance scores and applies the acceptance floor.
	StageScoring
	// StageDeduplicating drops candidates already present in the semantic index.
	StageDeduplicating
	// StageStoring persists unique candidates.
	StageStoring
	// StageDone marks a run that went through every stage.
	StageDone
)

var stageNames = map[Stage]string{
	StageCollecting:    "collecting",
	StageScoring:       "scoring",
	StageDeduplicating: "deduplicating",
	StageStoring:       "storing",
	StageDone:          "done",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// StageError records the first unrecoverable error of an entity run
// together with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage.String() + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// EntityRun is the execution record of one tracked entity.
// StoredCount + FailedCount always equals len(Unique).
type EntityRun struct {
	Entity       string
	Collected    []Article
	Unique       []Article
	StoredCount  int
	FailedCount  int
	FailedTitles []string
	Dropped      int   // Raw candidates rejected at the adapter boundary or below the floor
	Stage        Stage // Last stage entered
	StageError   *StageError
	Duration     time.Duration
}

// Failed reports whether the run terminated with a stage error.
func (r *EntityRun) Failed() bool {
	return r.StageError != nil
}

// Succeeded reports whether the run reached StageDone without a stage error.
func (r *EntityRun) Succeeded() bool {
	return r.StageError == nil && r.Stage == StageDone
}

// Empty reports whether the run produced nothing at all.
// An empty run is a valid outcome and is distinct from a failed one.
func (r *EntityRun) Empty() bool {
	return len(r.Collected) == 0 && len(r.Unique) == 0 && r.StoredCount == 0
}

// Digest is the priority ordered report built from a completed set of entity runs.
// It is immutable once built.
type Digest struct {
	GeneratedAt  time.Time
	Entities     []EntityRun
	AllUnique    []Article // Sorted by priority desc, published desc, title asc
	HighPriority []Article
	Other        []Article
	NoUpdates    bool
}

// FailedEntities returns the runs that ended with a stage error.
func (d *Digest) FailedEntities() []EntityRun {
	var failed []EntityRun
	for _, run := range d.Entities {
		if run.Failed() {
			failed = append(failed, run)
		}
	}
	return failed
}

// ArticlesFor returns the digest articles that belong to entity, in digest order.
func (d *Digest) ArticlesFor(entity string) []Article {
	var articles []Article
	for _, a := range d.AllUnique {
		if a.Entity == entity {
			articles = append(articles, a)
		}
	}
	return articles
}
