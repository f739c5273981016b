package identity

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	RoleUser       = "user"
	RoleSuperAdmin = "super_admin"
)

// User is the identity record persisted by the store. PasswordHash is the
// bcrypt hash of the credential supplied at registration; the plain value is
// discarded immediately after hashing.
type User struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Name               string    `json:"name"`
	GuardianName       string    `json:"fatherHusbandName"`
	MobileNo           string    `json:"mobileNo"`
	Email              string    `json:"emailId"`
	DateOfBirth        string    `json:"dateOfBirth"`
	PassoutPercentage  float64   `json:"passoutPercentage"`
	State              string    `json:"state"`
	Address            string    `json:"address"`
	CourseName         string    `json:"courseName"`
	Experience         string    `json:"experience"`
	CollegeName        string    `json:"collegeName"`
	PhotoURL           string    `json:"photoUrl"`
	QRSeedURL          string    `json:"qrCodeUrl,omitempty"`
	RegistrationNumber string    `json:"registrationNumber"`
	Role               string    `json:"role"`
	IsRestricted       bool      `json:"isRestricted"`
	PasswordHash       string    `json:"-"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// DisplayName is the "Title. Name" form used on certificates and in mails.
func (u User) DisplayName() string {
	if u.Title == "" {
		return u.Name
	}
	return u.Title + ". " + u.Name
}

// NewRegistrationNumber builds <prefix><4-digit year><5-digit zero-padded
// random>. Uniqueness is enforced by the store, not the generator.
func NewRegistrationNumber(prefix string, now time.Time) string {
	return fmt.Sprintf("%s%d%05d", prefix, now.Year(), rand.Intn(100000))
}
