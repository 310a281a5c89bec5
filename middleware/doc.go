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

// Package middleware runs a document processor against a queue.
//
// A Runtime receives batches of messages from a queue.Consumer and handles
// each message concurrently on a worker pool:
//   - unwrap SNS notifications and parse the event envelope
//   - validate the envelope
//   - skip messages already recorded in the ledger
//   - run the Processor, collecting the events it emits
//   - publish every emitted event with the service name prepended to its
//     call stack, retrying with exponential backoff
//   - record the message in the ledger and delete it from the queue
//
// A message is only deleted once processing and publishing succeeded. Any
// failure leaves it on the queue to be redelivered after its visibility
// timeout, or moved to a dead letter queue by the redrive policy.
package middleware
