// Package api exposes the credential-reset workflow over HTTP: anonymous
// initiation, administrative processing and rejection, and listings, each
// behind its route's authentication, authorization, and rate-limit chain.
package api
