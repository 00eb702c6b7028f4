// Package observability builds the service logger and the request logging
// middleware that tags every access line with the request id.
package observability
