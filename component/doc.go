// Package component defines the lifecycle interface shared by the
// long-running parts of the service (Telegram poller, ops server, storage)
// and a Registry that starts them in order and stops them in reverse.
//
// Components may also implement Describable to appear in the startup summary.
package component
