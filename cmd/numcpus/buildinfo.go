package main

var (
	Version = "0.1.0"
	GitInfo = "unknown"
)
