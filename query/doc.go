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


// Package query parses boolean search expressions into evaluable trees.
//
// The syntax supports AND (& or the word AND), OR (| or the word OR),
// prefix NOT (- or the word NOT) and quoted phrases. A query without any
// operator characters takes a fast path: whitespace-separated words with
// an implicit AND between them.
//
// The grammar is deliberately shallow. Parentheses are tokenized but do
// not group, a NOT anywhere other than the front of the expression is
// dropped, and there is no operator precedence: any OR splits the token
// stream at the top level. Callers that need exact matching wrap the
// words in quotes.
package query
