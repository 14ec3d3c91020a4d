// Package command provides the catdesk-cli command tree.
//
// Command layout:
//
//	root.go     App, global flags
//	runtime.go  per-invocation stores, storage and client
//	auth.go     auth login | logout | restore | status
//	product.go  product list | get | add | update | delete
//	shell.go    interactive shell
//	config.go   config show | path | init | validate
//	version.go  build information
//
// Commands that touch the catalog or the session build a Runtime on first
// use; config and version never do, so they work without storage or a
// reachable server.
package command
