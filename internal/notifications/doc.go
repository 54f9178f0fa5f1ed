// Package notifications publishes daemon health events to an ntfy topic.
//
// The daemon publishes when a refresh fails outright, when profiles fall back
// to cached issues, and when a later refresh recovers. Without a configured
// topic NewService returns a no-op publisher.
package notifications
