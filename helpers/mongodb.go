package helpers

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectID converts a string to a MongoDB ObjectID without the need of error checking
// (invalid input yields the NilObjectID)
func ObjectID(ID string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(ID)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}

// IsObjectID reports whether s is a well-formed 24 digit hex ObjectID
func IsObjectID(s string) bool {
	return primitive.IsValidObjectID(s)
}
