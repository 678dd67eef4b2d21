package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

// keywordSet matches whole words or phrases in lower-cased text.
// A trailing '*' on an entry matches any word continuation ("resign*" matches "resigned").
type keywordSet struct {
	words    []string
	patterns []*regexp.Regexp
}

func newKeywordSet(words ...string) *keywordSet {
	ks := &keywordSet{words: words, patterns: make([]*regexp.Regexp, len(words))}
	for i, w := range words {
		ks.patterns[i] = regexp.MustCompile(keywordPattern(w))
	}
	return ks
}

func keywordPattern(word string) string {
	stem := strings.HasSuffix(word, "*")
	word = strings.TrimSuffix(word, "*")

	parts := strings.Fields(word)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	pattern := `\b` + strings.Join(parts, `\s+`)
	if stem {
		return pattern + `\w*`
	}
	return pattern + `\b`
}

// count returns how many distinct entries occur in text.
func (ks *keywordSet) count(text string) int {
	n := 0
	for _, p := range ks.patterns {
		if p.MatchString(text) {
			n++
		}
	}
	return n
}

// any reports whether at least one entry occurs in text.
func (ks *keywordSet) any(text string) bool {
	for _, p := range ks.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

var (
	leadershipRoles = newKeywordSet(
		"ceo", "cfo", "cto", "coo", "president", "chairman", "chairwoman",
		"founder", "co-founder", "chief executive",
	)
	leadershipActions = newKeywordSet(
		"appoint*", "named", "names", "resign*", "stepped down", "steps down", "step down",
		"fired", "terminated", "replace*", "hired", "joined", "joins", "depart*",
		"ousted", "succeed*",
	)

	aiKeywords = newKeywordSet(
		"ai", "artificial intelligence", "machine learning", "ml", "neural", "deep learning",
		"chatgpt", "gpt", "llm*", "generative ai", "large language model*",
	)
	businessKeywords = newKeywordSet(
		"acquisition*", "acquire*", "merger*", "partnership*", "deal", "deals", "funding",
		"investment*", "ipo", "layoff*", "hiring", "expansion",
	)
	regulatoryKeywords = newKeywordSet(
		"lawsuit*", "settlement*", "fine", "fined", "regulator*", "investigation*",
		"antitrust", "sec", "ftc", "doj",
	)
	earningsKeywords = newKeywordSet(
		"earnings", "revenue*", "profit*", "loss", "losses", "quarterly", "annual",
		"guidance", "forecast*",
	)
	productKeywords = newKeywordSet(
		"launch*", "announc*", "unveil*", "release*", "introduc*", "innovation*",
	)
	highImpactTitleWords = newKeywordSet(
		"breakthrough", "major", "significant", "historic", "record", "first", "new",
		"revolutionary",
	)
)

const (
	percent  = `(\d+(?:\.\d+)?)\s?(?:%|percent\b)`
	movement = `(?:up|down|rise[sn]?|rose|fall(?:s|en)?|fell|gain(?:s|ed)?|loss|los(?:es|t)|increase[sd]?|decrease[sd]?)`
	spike    = `(?:surge[sd]?|plunge[sd]?|jump(?:s|ed)?|drop(?:s|ped)?|spike[sd]?|crash(?:es|ed)?|soar(?:s|ed)?|tumble[sd]?|slump(?:s|ed)?)`
)

// stockPatterns are the pattern families for a percentage next to a movement verb.
// Each has exactly one capture group holding the number.
var stockPatterns = []*regexp.Regexp{
	regexp.MustCompile(percent + `\s+` + movement + `\b`),
	regexp.MustCompile(`\b` + movement + `\s+(?:by\s+)?` + percent),
	regexp.MustCompile(percent + `\s+(?:higher|lower)\b`),
	regexp.MustCompile(`\b` + spike + `\s+(?:by\s+)?` + percent),
}

// significantMove is the smallest percentage that counts as a stock signal.
const significantMove = 5.0

func hasLeadershipChange(text string) bool {
	return leadershipRoles.any(text) && leadershipActions.any(text)
}

// hasSignificantMove reports whether any pattern family finds a movement of at least 5%.
func hasSignificantMove(text string) bool {
	for _, p := range stockPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			if v >= significantMove {
				return true
			}
		}
	}
	return false
}
