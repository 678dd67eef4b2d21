// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"net/url"
	"strings"
)

// MaxRelevanceScore is the ceiling of the relevance scale.
const MaxRelevanceScore = 15.0

// ValidateRawArticle validates a candidate at the source adapter boundary.
//
// Validation rules:
//   - Title must not be blank
//   - URL must be an absolute http or https URL
//
// NOT validated:
//   - Snippet (feeds frequently omit it)
//   - PublishedAt (zero means unknown)
func ValidateRawArticle(raw *RawArticle) error {
	if raw == nil {
		return fmt.Errorf("%w: article is nil", ErrInvalidArticle)
	}

	if strings.TrimSpace(raw.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrEmptyTitle)
	}

	if err := ValidateURL(raw.URL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, err)
	}

	return nil
}

// ValidateArticle validates a scored Article before it is stored.
func ValidateArticle(article *Article) error {
	if article == nil {
		return fmt.Errorf("%w: article is nil", ErrInvalidArticle)
	}

	if strings.TrimSpace(article.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrEmptyTitle)
	}

	if article.Entity == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrEmptyEntity)
	}

	if article.RelevanceScore < 0 || article.RelevanceScore > MaxRelevanceScore {
		return fmt.Errorf("%w: %w: %.2f", ErrInvalidArticle, ErrScoreOutOfRange, article.RelevanceScore)
	}

	return nil
}

// ValidateURL checks that raw is an absolute http or https URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// NormalizeURL canonicalizes a URL for equality checks: lower-cased host,
// no fragment, no trailing slash. Unparseable input is returned trimmed.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
