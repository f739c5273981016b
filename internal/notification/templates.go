package notification

import "fmt"

// RegistrationEmail is the welcome mail sent after a successful
// registration. The credential scheme (password = phone number) is spelled
// out because users never choose a password.
func RegistrationEmail(name, loginURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #667eea;">Welcome to Certificate System</h1>
    <p>Dear <strong>%s</strong>,</p>
    <p>Your registration has been completed successfully. You can now log in and generate your certificate.</p>
    <ul>
      <li>Log in with your phone number or email</li>
      <li>Your password is your phone number</li>
      <li>Generate and download your certificate</li>
    </ul>
    <p><a href="%s" style="background: #667eea; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px;">Login Now</a></p>
  </div>
</body>
</html>`, name, loginURL)
}

// CertificateEmail tells the user their certificate is ready and links the
// public verification view.
func CertificateEmail(name, certificateURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #28a745;">Your Certificate Is Ready</h1>
    <p>Dear <strong>%s</strong>,</p>
    <p>Your certificate has been generated and can be viewed, verified, and downloaded at the link below. The embedded QR code lets anyone verify it.</p>
    <p><a href="%s" style="background: #28a745; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px;">View Certificate</a></p>
  </div>
</body>
</html>`, name, certificateURL)
}
