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

// DocumentStatus is the lifecycle state of a Document.
type DocumentStatus int

const (
	// StatusPending means the document is registered but unclaimed.
	StatusPending DocumentStatus = iota + 1
	// StatusProcessing means an orchestrator run holds the claim.
	StatusProcessing
	// StatusCompleted is the successful terminal state.
	StatusCompleted
	// StatusFailed is the unsuccessful terminal state, with error text.
	StatusFailed
	// StatusDeleted is the irreversible tombstone state.
	StatusDeleted
)

// String returns the lowercase status name.
func (s DocumentStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further automatic transition occurs from s.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusDeleted
}

// CanTransition reports whether the automatic transition s -> to is legal.
//
// Legal transitions:
//
//	pending    -> processing
//	processing -> completed
//	processing -> failed
//	any        -> deleted (except deleted itself; the tombstone is final)
//
// Resets to pending for reprocessing are intentionally excluded here; they
// require the explicit reset path, see CanReset.
func (s DocumentStatus) CanTransition(to DocumentStatus) bool {
	if to == StatusDeleted {
		return s != StatusDeleted
	}
	switch s {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// CanReset reports whether a document in state s may be explicitly reset to
// pending for reprocessing. Only the non-deleted terminal states qualify.
func (s DocumentStatus) CanReset() bool {
	return s == StatusCompleted || s == StatusFailed
}
