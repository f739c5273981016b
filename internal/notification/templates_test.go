package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistrationEmail(t *testing.T) {
	html := RegistrationEmail("Ms. Jane Doe", "https://certs.example.com/login")
	assert.Contains(t, html, "Ms. Jane Doe")
	assert.Contains(t, html, `href="https://certs.example.com/login"`)
	assert.Contains(t, html, "password is your phone number")
}

func TestCertificateEmail(t *testing.T) {
	html := CertificateEmail("Ms. Jane Doe", "https://certs.example.com/certificate/CERT_1_abc")
	assert.Contains(t, html, "Ms. Jane Doe")
	assert.Contains(t, html, `href="https://certs.example.com/certificate/CERT_1_abc"`)
}
