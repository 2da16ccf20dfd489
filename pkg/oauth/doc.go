// Package oauth holds the protocol vocabulary shared by dcrclient's
// components: OpenID Provider metadata, token sets, dynamic client
// registration requests and responses, and PKCE/state generation.
//
// It performs no I/O. Provider communication lives in internal/oauth.
package oauth
