package certificate

import (
	"fmt"
	"math/rand"
	"time"
)

// Payload is the verification snapshot embedded in the QR code. It is frozen
// at mint time: later profile edits never touch previously issued
// certificates. The encoding is a convenience pointer, not a security
// control; the authoritative check is the server-side resolve.
type Payload struct {
	CertificateID      string `json:"certificateId"`
	Name               string `json:"name"`
	GuardianName       string `json:"fatherHusbandName"`
	RegistrationNumber string `json:"registrationNumber"`
	MobileNo           string `json:"mobileNo"`
	EmailID            string `json:"emailId"`
	DateOfBirth        string `json:"dateOfBirth"`
	CourseName         string `json:"courseName"`
	CollegeName        string `json:"collegeName"`
	Experience         string `json:"experience"`
	PassoutPercentage  string `json:"passoutPercentage"`
	State              string `json:"state"`
	Address            string `json:"address"`
	IssueDate          string `json:"issueDate"`
	VerificationURL    string `json:"verificationUrl"`
}

// Certificate is immutable after creation and never deleted.
type Certificate struct {
	CertificateID  string    `json:"certificateId"`
	UserID         string    `json:"userId"`
	Payload        Payload   `json:"qrData"`
	QRImageDataURL string    `json:"qrCodeDataUrl"`
	CreatedAt      time.Time `json:"createdAt"`
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewCertificateID builds CERT_<millisecond timestamp>_<9-char base36>.
// Monotonic-ish but not strictly ordered; the collision probability is
// treated as negligible and the store's primary key is the backstop.
func NewCertificateID(now time.Time) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = base36[rand.Intn(len(base36))]
	}
	return fmt.Sprintf("CERT_%d_%s", now.UnixMilli(), suffix)
}
