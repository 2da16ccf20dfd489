// Package idtoken reads OpenID Connect ID tokens without verifying their
// signature. See Reader for the trust assumptions.
package idtoken
