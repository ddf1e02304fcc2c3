package entity

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Gender values accepted on the signup form.
var Genders = []string{"Male", "Female", "Other", "Prefer not to say"}

// Document is the government ID upload kept inline with the user record.
type Document struct {
	Filename    string
	ContentType string
	Size        int64
	Content     string // base64
	UploadedAt  time.Time
}

// SizeMB is the document size rounded to two decimals for display.
func (d Document) SizeMB() float64 {
	return math.Round(float64(d.Size)/(1024*1024)*100) / 100
}

type User struct {
	ID               primitive.ObjectID
	Name             string
	Email            string
	NationalID       string
	Password         string // bcrypt hash
	Birthday         string // YYYY-MM-DD
	Gender           string
	Document         Document
	Role             Role
	CreatedAt        time.Time
	ResetToken       string
	ResetTokenExpiry *time.Time
}

// MaskedNationalID shows only the last four digits, e.g. XXXX-XXXX-9012.
func MaskedNationalID(id string) string {
	if len(id) < 4 {
		return "XXXX-XXXX-XXXX"
	}
	return "XXXX-XXXX-" + id[len(id)-4:]
}
