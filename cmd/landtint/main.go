// landtint - land-cover segmentation of satellite imagery by colour
//
// landtint groups the pixels of a satellite image into K colour clusters with
// k-means and reports how much of the scene each cluster covers.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import (
	"os"

	"github.com/jmylchreest/landtint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
