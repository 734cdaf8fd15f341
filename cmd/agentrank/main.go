// Package main provides the agentrank CLI.
//
// agentrank searches the web for the best real estate agents in an area,
// aggregates the result pages of several query phrasings and prints the
// sites that rank consistently well.
//
// Usage:
//
//	agentrank rank "Austin, TX"
//	agentrank rank --top 10 --format markdown -o austin.md "Austin, TX"
//	agentrank queries "Austin, TX"
//
// See --help for all available options.
package main

func main() {
	Execute()
}
