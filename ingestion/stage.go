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


package ingestion

import (
	"fmt"
	"time"

	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/metrics"
)

// runStage enters stage on run, executes fn and converts a panic into an error.
// A non-nil result is recorded as the run's StageError.
func (p *Pipeline) runStage(run *core.EntityRun, stage core.Stage, fn func() error) (err error) {
	run.Stage = stage
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStagePanic, r)
		}
		if err != nil {
			run.StageError = &core.StageError{Stage: stage, Err: err}
		}
		if p.metrics {
			metrics.RecordStage(stage.String(), time.Since(start))
		}
	}()

	return fn()
}
