package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Faultbox/vpet-sync/internal/logger"
	"github.com/Faultbox/vpet-sync/pkg/scene"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Rewrite a scene in the current protocol version",
	Long: `Decode the section files in <in>, upgrade legacy node layouts and write
the result to <out>. Scenes already at the current version are copied.

Examples:
  vpetctl convert ./scene-v1 ./scene`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	codec := scene.NewCodec(logger.Named("codec"))

	sections, err := scene.LoadSections(in)
	if err != nil {
		return err
	}
	s, err := codec.Decode(sections)
	if err != nil {
		return err
	}
	from := s.Header.Version

	converted, err := scene.Convert(s)
	if err != nil {
		return err
	}
	encoded, err := codec.Encode(converted)
	if err != nil {
		return err
	}
	if err := scene.SaveSections(out, encoded); err != nil {
		return err
	}

	fmt.Printf("Converted %s (v%d) -> %s (v%d), %d nodes\n",
		in, from, out, converted.Header.Version, converted.NodeCount())
	return nil
}
