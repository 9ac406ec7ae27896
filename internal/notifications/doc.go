// Package notifications delivers workflow events via ntfy push notifications.
//
// The default implementation publishes to the topic configured in config.toml
// and gracefully degrades to a no-op when no topic is set. Individual event
// classes (queue, download, publish, completion, errors) can be toggled in
// configuration so stage handlers emit consistent messages without checking
// settings themselves.
//
// All workflow code depends only on the Service interface.
package notifications
