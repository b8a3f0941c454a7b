/*
Package authsdk is the client SDK for the Lectern auth service, and the
home of the wire types the service itself encodes.

# SDKClient vs Session

  - SDKClient covers the public endpoints: registration, email
    verification, login, password reset and health.
  - Session wraps an access and refresh token pair and refreshes it
    automatically before it expires.

Register and verify:

	client := authsdk.NewSDKClient("https://auth.example.com")
	_, err := client.Register(ctx, authsdk.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: pw})
	verified, err := client.VerifyOTP(ctx, "ada@example.com", codeFromMail)

Log in, completing the MFA challenge when the account has one:

	session, err := client.Login(ctx, email, password)
	var mfa *authsdk.MFARequiredError
	if errors.As(err, &mfa) {
		session, err = client.VerifyMFALogin(ctx, mfa.TempToken, totpCode, "")
	}

# Errors

Every failure response decodes into *APIError. Compare against the
predefined values with errors.Is, which matches on status and code:

	if errors.Is(err, authsdk.ErrUnauthorized) { ... }

The server keeps messages generic; the precise reason for a rejection is
only recorded in the audit trail.
*/
package authsdk
