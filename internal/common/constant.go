// Package common contains shared constants, sentinel errors and small
// helpers used across the client and the credential server.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the session
// token on outbound requests.
const AccessTokenHeaderName = "access_token"
