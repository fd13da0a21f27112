// Package main hosts the videoqa CLI entrypoint and command graph.
//
// Each one-shot command (list, add, edit, delete, ask, transcript) mounts a
// fresh catalog against the configured video service, performs one action,
// and prints the result. The shell command keeps a catalog alive and runs the
// interactive loop, multiplexing typed commands with answers that arrive in
// the background.
//
// Configuration resolution, logging setup, and diagnostics wiring live in
// commandContext so subcommands only deal with presentation.
package main
