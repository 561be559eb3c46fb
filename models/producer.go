package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProducerSummary is the minimal description of a location shown next to a choice.
// Producer collections were filled by different importers, so the same information
// is found under different field names.
type ProducerSummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Category []string `json:"category"`
}

// Summarize normalizes a producer document
func Summarize(doc bson.M) *ProducerSummary {
	if doc == nil {
		return nil
	}

	s := &ProducerSummary{
		Name:     firstString(doc, "name", "lieu", "intitulé", "title"),
		Address:  firstString(doc, "address", "adresse"),
		Category: stringList(first(doc, "category", "catégorie")),
	}

	switch id := doc["_id"].(type) {
	case primitive.ObjectID:
		s.ID = id.Hex()
	case string:
		s.ID = id
	}

	return s
}

func first(doc bson.M, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := doc[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(doc bson.M, keys ...string) string {
	for _, k := range keys {
		if s, ok := doc[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func stringList(v interface{}) []string {
	out := []string{}

	switch c := v.(type) {
	case string:
		if c != "" {
			out = append(out, c)
		}
	case bson.A:
		for _, e := range c {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, c...)
	case []interface{}:
		for _, e := range c {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
	}

	return out
}
