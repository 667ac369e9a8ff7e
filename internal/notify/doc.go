// Package notify delivers run milestones via push notifications.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The pipeline runner emits run started, completed, and failed
// events so long alignments can be monitored from a phone without watching
// the terminal.
//
// Extend this package if you need alternative transports; the runner depends
// only on the simple Service interface.
package notify
