// Package main is the entry point for the cricstats CLI tool, which
// loads tabular cricket-match data, computes team/player KPIs, and
// trains a match-winner classifier.
package main

import "github.com/cricstats/go-cricket-metrics/cmd"

func main() {
	cmd.Execute()
}
