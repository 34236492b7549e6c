// Package currents is a thin client for the Currents news API.
//
// The client performs a single request per call and never retries; caching
// and fallback decisions belong to the caller.
package currents
