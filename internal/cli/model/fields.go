package model

import (
	"fmt"
	"strings"
)

// EditableFields — текстовые поля, которые можно менять через CLI.
var EditableFields = []string{"name", "title", "company", "country", "email", "phone", "website", "address", "note"}

// SetField устанавливает текстовое поле по имени.
func (c *Card) SetField(field, value string) error {
	switch strings.ToLower(field) {
	case "name":
		c.Name = value
	case "title":
		c.Title = value
	case "company":
		c.Company = value
	case "country":
		c.Country = value
	case "email":
		c.Email = value
	case "phone":
		c.Phone = value
	case "website":
		c.Website = value
	case "address":
		c.Address = value
	case "note":
		c.Note = value
	case "tags":
		c.Tags = NormalizeTags(strings.Split(value, ","))
	default:
		return fmt.Errorf("unknown field: %s (expected: %s|tags)", field, strings.Join(EditableFields, "|"))
	}
	return nil
}

// ParseAssignments разбирает аргументы вида field=value.
func ParseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected field=value, got %q", a)
		}
		out[strings.ToLower(k)] = v
	}
	return out, nil
}
