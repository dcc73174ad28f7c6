package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh document id.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id is a well-formed document id.
func ValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
