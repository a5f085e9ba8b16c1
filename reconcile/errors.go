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
package reconcile

import "errors"

var (
	// ErrEmptyReply indicates the model returned no content.
	ErrEmptyReply = errors.New("empty model reply")

	// ErrMalformedJSON indicates the cleaned reply could not be decoded.
	ErrMalformedJSON = errors.New("malformed JSON")

	// ErrUnexpectedShape indicates the reply decoded to neither an array nor an object.
	ErrUnexpectedShape = errors.New("reply is neither an array nor an object")

	// ErrInvalidElement indicates an array element that is not an object.
	ErrInvalidElement = errors.New("feedback element is not an object")

	// ErrNoJSONObject indicates no JSON object could be located in the reply.
	ErrNoJSONObject = errors.New("no JSON object in reply")

	// ErrCompleterRequired is returned when a model completer is not provided.
	ErrCompleterRequired = errors.New("completer required")
)
