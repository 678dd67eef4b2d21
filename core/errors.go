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

import "errors"

// Domain validation errors
var (
	// ErrInvalidArticle indicates a RawArticle or Article failed validation.
	ErrInvalidArticle = errors.New("invalid article")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrInvalidURL indicates the URL is missing or not an absolute http(s) URL.
	ErrInvalidURL = errors.New("url must be an absolute http or https URL")

	// ErrEmptyEntity indicates the Entity field is empty.
	ErrEmptyEntity = errors.New("entity cannot be empty")

	// ErrScoreOutOfRange indicates a relevance score outside [0, 15].
	ErrScoreOutOfRange = errors.New("relevance score out of range")
)
