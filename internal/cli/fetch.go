package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	f := &imageryFlags{}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download satellite imagery around a coordinate",
		Long: `Download World Imagery tiles around a coordinate, stitch them into one
image and save it as satellite-<lat>-<lon>.png.

Tiles are cached, so fetching the same area again does not hit the network.

Examples:
  # 3x3 tiles at zoom 13 around Madrid
  landtint fetch --lat 40.4168 --lon -3.7038

  # A single tile at zoom 15, saved under scenes/
  landtint fetch --lat 51.5072 --lon -0.1276 --zoom 15 --radius 0 --fetch-dir scenes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := f.fetch(cmd.Context(), cmd.Flags(), newLogger(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	f.register(cmd.Flags())
	return cmd
}
