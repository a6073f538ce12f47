// Package naming converts identifiers between casing conventions such as
// lower_snake_case, UPPER-KEBAB-CASE, PascalCase and camelCase.
package naming
