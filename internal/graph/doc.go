// Package graph implements a minimal Microsoft Graph API client for the
// drive, site, and search endpoints used by graphdrive.
//
// The client accepts a TokenSource for bearer authentication, retries
// transient failures with exponential backoff (honoring Retry-After on
// throttled responses), and classifies HTTP errors into sentinel errors
// wrapped in APIError. All responses are normalized into the Item, Site,
// and Drive types; callers never handle raw Graph JSON.
package graph
