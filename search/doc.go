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


// Package search finds stored articles similar to a free-text query.
//
// The Searcher combines two signals:
//   - Semantic similarity from the entity's partition of the semantic index
//   - Verbatim keyword matching with stop-word filtering
//
// Neighbours below the minimum similarity are discarded; articles whose title
// and snippet contain every query word get a fixed boost.
package search
