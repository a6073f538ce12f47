/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package naming

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Convention is a casing style applied to identifiers. The zero value leaves
// identifiers untouched.
type Convention int

const (
	None Convention = iota
	LowerSnakeCase
	UpperSnakeCase
	LowerKebabCase
	UpperKebabCase
	PascalCase
	CamelCase
	LowerCase
	UpperCase
)

var conventionNames = map[Convention]string{
	None:           "none",
	LowerSnakeCase: "lower_snake_case",
	UpperSnakeCase: "upper_snake_case",
	LowerKebabCase: "lower_kebab_case",
	UpperKebabCase: "upper_kebab_case",
	PascalCase:     "pascal_case",
	CamelCase:      "camel_case",
	LowerCase:      "lower_case",
	UpperCase:      "upper_case",
}

func (c Convention) String() string {
	if s, ok := conventionNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Convention(%d)", int(c))
}

// Parse accepts a convention name written in any casing, e.g.
// "lower_snake_case", "PascalCase" or "UPPER-KEBAB-CASE". An empty string
// parses to None.
func Parse(s string) (Convention, error) {
	key := Apply(strings.TrimSpace(s), LowerSnakeCase)
	if key == "" {
		return None, nil
	}
	for c, name := range conventionNames {
		if name == key {
			return c, nil
		}
	}
	return None, fmt.Errorf("naming: unknown convention %q", s)
}

func (c Convention) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Convention) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Apply returns name rewritten in the given convention. Applying the same
// convention twice yields the same result as applying it once.
func Apply(name string, c Convention) string {
	if c == None || name == "" {
		return name
	}
	parts := Words(name)
	if len(parts) == 0 {
		return ""
	}
	lower := cases.Lower(language.Und)
	upper := cases.Upper(language.Und)

	switch c {
	case LowerSnakeCase, LowerKebabCase, LowerCase:
		for i, w := range parts {
			parts[i] = lower.String(w)
		}
	case UpperSnakeCase, UpperKebabCase, UpperCase:
		for i, w := range parts {
			parts[i] = upper.String(w)
		}
	case PascalCase, CamelCase:
		parts = joinLetters(parts)
		for i, w := range parts {
			if i == 0 && c == CamelCase {
				parts[i] = lower.String(w)
				continue
			}
			parts[i] = title(w, lower, upper)
		}
	}

	switch c {
	case LowerSnakeCase, UpperSnakeCase:
		return strings.Join(parts, "_")
	case LowerKebabCase, UpperKebabCase:
		return strings.Join(parts, "-")
	default:
		return strings.Join(parts, "")
	}
}

// Equal reports whether a and b name the same identifier regardless of
// casing style, so "ID", "Id" and "id" are equal.
func Equal(a, b string) bool {
	return Apply(a, LowerSnakeCase) == Apply(b, LowerSnakeCase)
}

// Words splits an identifier into its words. Underscores, hyphens, dots and
// spaces separate words, and so does a case transition: an upper-case rune
// starts a new word when it follows a lower-case rune or a digit, or when it
// is the last upper-case rune of an acronym followed by a lower-case rune.
func Words(name string) []string {
	rs := []rune(norm.NFC.String(name))
	var (
		out []string
		cur []rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	for i, r := range rs {
		if isSeparator(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
}

func title(w string, lower, upper cases.Caser) string {
	rs := []rune(w)
	return upper.String(string(rs[:1])) + lower.String(string(rs[1:]))
}

// joinLetters merges consecutive one-rune words. Title-cased side by side
// they would form an upper-case run that Words reads back as one acronym.
func joinLetters(parts []string) []string {
	out := parts[:0]
	run := false
	for _, w := range parts {
		single := len([]rune(w)) == 1
		if single && run {
			out[len(out)-1] += w
			continue
		}
		out = append(out, w)
		run = single
	}
	return out
}
