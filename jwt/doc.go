// Package jwt reads claims from access tokens without verifying them. The
// session manager treats tokens as opaque credentials; inspection only serves
// hints such as the expiry shown to a user or used to schedule a refresh.
package jwt
