// Package handler provides the HTTP handlers for the curation service.
//
// The surface is small: a health probe, a trigger endpoint, a status
// endpoint and the dataset endpoint. Handlers never block on the
// curation pipeline; triggering returns immediately and clients follow
// progress through GET /api/status.
//
// Errors are reported as RFC 9457 Problem Details documents via
// WriteError.
package handler
