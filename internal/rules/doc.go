// Package rules holds the pure decision logic of a checkout request: which
// equipment class to suggest, which review flags apply, which inventory
// matches, and which maintenance alerts an item raises.
package rules
