// Package repl provides the interactive shell of catdesk-cli.
//
// The shell keeps a current route (login, product list, product detail,
// add and edit forms) resolved through the navigation guard, so the same
// access rules apply as in the browser client:
//
//   - repl.go: read loop, prompt and route rendering
//   - commands.go: command table and handlers
//   - completer.go: command and path suggestions
//   - history.go: command history persistence
package repl
