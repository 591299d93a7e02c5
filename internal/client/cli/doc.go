// Package cli is the terminal front end of the book summary client. It
// runs the app flow on a UI loop and drives it from a line-oriented REPL
// whose commands depend on the current stage.
package cli
