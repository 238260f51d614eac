// Package viz renders simulations in the terminal.
//
//   - [Progress]: Bubble Tea model showing the progress of a running
//     simulation; [RunLive] drives it from the cooperative run loop
//   - [Plot]: asciigraph time series of species quantities
//   - [Summary]: lipgloss key/value panel for run results
//
// # Key Bindings
//
//	q, ctrl+c - cancel the running simulation
package viz
