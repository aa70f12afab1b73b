package database

import (
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// irregular maps type names whose collection name does not follow the
// plural convention.
var irregular = map[string]string{
	"SystemLog":    "system_logs",
	"RefreshToken": "refresh_tokens",
	"Person":       "people",
	"Child":        "children",
	"Status":       "statuses",
}

// CollectionName resolves the collection for a document value or pointer:
// the type name with any "Document" suffix stripped, pluralised and
// lower-cased.
func CollectionName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return collectionNameFor(t.Name())
}

func collectionNameFor(typeName string) string {
	name := strings.TrimSuffix(typeName, "Document")
	if name == "" {
		name = typeName
	}
	if c, ok := irregular[name]; ok {
		return c
	}
	return strings.ToLower(pluralize(name))
}

func pluralize(s string) string {
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		return s + "es"
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !strings.ContainsRune("aeiou", rune(lower[len(lower)-2])):
		return s[:len(s)-1] + "ies"
	}
	return s + "s"
}

// CollectionFor returns the collection handle for document type T.
func CollectionFor[T any](c *Context) *mongo.Collection {
	var zero T
	return c.Collection(CollectionName(zero))
}
