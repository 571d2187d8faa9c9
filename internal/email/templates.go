package email

import "fmt"

// OTPBody renders the verification-code email.
func OTPBody(code string) (subject, html string) {
	subject = "Email Verification - TastyBites"
	html = fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #e67e22;">TastyBites Email Verification</h2>
  <p>Thank you for registering with TastyBites! Please use the following code to verify your email address:</p>
  <div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0; text-align: center;">
    <h1 style="color: #e67e22; letter-spacing: 5px; margin: 0;">%s</h1>
  </div>
  <p>This code will expire in 10 minutes.</p>
  <p>If you didn't request this verification, please ignore this email.</p>
</div>`, code)
	return subject, html
}

// WelcomeBody renders the post-registration greeting.
func WelcomeBody(name string) (subject, html string) {
	subject = "Welcome to TastyBites!"
	html = fmt.Sprintf(`<h1>Welcome to TastyBites!</h1>
<p>Hello %s,</p>
<p>Thank you for joining TastyBites. We're excited to have you as part of our culinary community!</p>
<p>Start exploring recipes, saving your favorites, and sharing your cooking experiences with others.</p>
<p>Happy cooking!</p>
<p>The TastyBites Team</p>`, name)
	return subject, html
}

// PasswordResetBody renders the reset-link email.
func PasswordResetBody(resetURL string) (subject, html string) {
	subject = "Password Reset Request"
	html = fmt.Sprintf(`<h1>Password Reset Request</h1>
<p>You requested a password reset. Please click the link below to reset your password:</p>
<a href="%s" target="_blank">Reset Password</a>
<p>This link will expire in 10 minutes.</p>
<p>If you didn't request this, please ignore this email.</p>`, resetURL)
	return subject, html
}

// ContactBody renders the internal notification for a contact-form submission.
func ContactBody(name, from, subject, message string) (mailSubject, html string) {
	mailSubject = "TastyBites Contact Form: " + subject
	html = fmt.Sprintf(`<h2>New Contact Form Submission</h2>
<p><strong>From:</strong> %s (%s)</p>
<p><strong>Subject:</strong> %s</p>
<p><strong>Message:</strong></p>
<p>%s</p>`, name, from, subject, message)
	return mailSubject, html
}
