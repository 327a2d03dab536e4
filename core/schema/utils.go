package schema

import "strings"

func (s *SchemaDefinition) FindField(name string) *FieldDefinition {
	for _, field := range s.Fields {
		if field.Name == name {
			return field
		}
	}
	return nil
}

// ValuesAlias derives the alias of a derived values table from the alias of the
// table it is joined against: the alias with a "V" appended, in snake case.
// The result never equals alias.
func ValuesAlias(alias string) string {
	return SnakeCase(alias + "V")
}

// SnakeCase lower-cases s, inserting an underscore before every upper-case
// letter that follows another character.
func SnakeCase(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] != '_' {
				sb.WriteByte('_')
			}
			sb.WriteRune(r + ('a' - 'A'))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// StringPtr is a helper function that returns a pointer to a string.
func StringPtr(s string) *string {
	return &s
}

// BoolPtr is a helper function that returns a pointer to a bool.
func BoolPtr(b bool) *bool {
	return &b
}
