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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		in   string
		conv Convention
		want string
	}{
		{"lower snake", "UserEmailAddress", LowerSnakeCase, "user_email_address"},
		{"upper snake", "UserEmailAddress", UpperSnakeCase, "USER_EMAIL_ADDRESS"},
		{"lower kebab", "UserEmailAddress", LowerKebabCase, "user-email-address"},
		{"upper kebab", "UserEmailAddress", UpperKebabCase, "USER-EMAIL-ADDRESS"},
		{"pascal from snake", "user_email_address", PascalCase, "UserEmailAddress"},
		{"camel", "UserEmailAddress", CamelCase, "userEmailAddress"},
		{"lower", "UserEmailAddress", LowerCase, "useremailaddress"},
		{"upper", "user_email_address", UpperCase, "USEREMAILADDRESS"},
		{"none keeps verbatim", "User_EmailAddress", None, "User_EmailAddress"},
		{"acronym", "HTMLParser", LowerSnakeCase, "html_parser"},
		{"trailing acronym", "UserID", LowerSnakeCase, "user_id"},
		{"digits", "Address2Line", LowerSnakeCase, "address2_line"},
		{"action name", "OrderGetById", LowerSnakeCase, "order_get_by_id"},
		{"kebab to pascal", "get-many-paged", PascalCase, "GetManyPaged"},
		{"letter run to pascal", "a_b_c", PascalCase, "Abc"},
		{"trailing letters to pascal", "user_a_b", PascalCase, "UserAb"},
		{"letter run to camel", "user_a_b", CamelCase, "userAb"},
		{"single letter stays a word", "user_a", PascalCase, "UserA"},
		{"empty", "", PascalCase, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(tt.in, tt.conv))
		})
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	inputs := []string{
		"UserEmailAddress", "user_email_address", "HTMLParser", "UserID",
		"Address2Line", "get-many-paged", "already lower", "X", "CultureId",
		"a_b_c", "user_a_b", "x_y", "a_bc", "v_2_b",
	}
	for c := range conventionNames {
		for _, in := range inputs {
			once := Apply(in, c)
			assert.Equal(t, once, Apply(once, c), "%s(%q)", c, in)
		}
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("ID", "Id"))
	assert.True(t, Equal("TotalCount", "total_count"))
	assert.True(t, Equal("CultureId", "culture-id"))
	assert.False(t, Equal("Id", "Identity"))
}

func TestParse(t *testing.T) {
	for c, name := range conventionNames {
		got, err := Parse(name)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	got, err := Parse("PascalCase")
	require.NoError(t, err)
	assert.Equal(t, PascalCase, got)

	got, err = Parse("UPPER-KEBAB-CASE")
	require.NoError(t, err)
	assert.Equal(t, UpperKebabCase, got)

	got, err = Parse("")
	require.NoError(t, err)
	assert.Equal(t, None, got)

	_, err = Parse("title_case")
	assert.Error(t, err)
}

func TestUnmarshalText(t *testing.T) {
	var c Convention
	require.NoError(t, c.UnmarshalText([]byte("camelCase")))
	assert.Equal(t, CamelCase, c)

	text, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "camel_case", string(text))
}
