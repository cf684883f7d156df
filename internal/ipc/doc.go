// Package ipc carries control traffic between the CLI and the daemon
// over JSON-RPC on a Unix domain socket. The CLI is the only intended
// client; the socket lives in the log directory and is removed on
// shutdown.
package ipc
