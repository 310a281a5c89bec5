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

package queue

import "errors"

var (
	// ErrUnknownReceipt indicates a delete for a message that is not in flight.
	ErrUnknownReceipt = errors.New("unknown receipt handle")

	// ErrPublishFailed indicates an event could not be published.
	ErrPublishFailed = errors.New("publish failed")

	// ErrMissingQueueURL indicates a consumer was created without a queue URL.
	ErrMissingQueueURL = errors.New("queue url is required")

	// ErrMissingTopicARN indicates a publisher was created without a topic.
	ErrMissingTopicARN = errors.New("topic arn is required")
)
