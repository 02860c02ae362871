package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Faultbox/vpet-sync/internal/entity"
	"github.com/Faultbox/vpet-sync/internal/logger"
	"github.com/Faultbox/vpet-sync/pkg/scene"
)

var inspectParams bool

var inspectCmd = &cobra.Command{
	Use:   "inspect [dir]",
	Short: "Show the contents of a scene directory",
	Long: `Decode the section files in a directory and print the header, the node
list and the package counts. Sections that fail to decode are reported and
the rest are still shown.

Examples:
  vpetctl inspect ./scene
  vpetctl inspect ./scene --params`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVarP(&inspectParams, "params", "p", false, "List the editable parameters of every object")
}

func runInspect(cmd *cobra.Command, args []string) error {
	dir := sceneDir(args)
	sections, err := scene.LoadSections(dir)
	if err != nil {
		return err
	}

	s, err := scene.NewCodec(logger.Named("codec")).Decode(sections)
	if s == nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	h := s.Header
	fmt.Printf("Scene: %s\n", dir)
	fmt.Printf("  Version:        %d\n", h.Version)
	fmt.Printf("  Scale:          %g\n", h.Scale)
	fmt.Printf("  Light factor:   %g\n", h.LightIntensityFactor)
	fmt.Printf("  Frame rate:     %d\n", h.FrameRate)
	fmt.Printf("  Sender:         %d\n", h.SenderID)
	fmt.Printf("  Total size:     %d bytes\n", sections.Size())
	fmt.Println()

	fmt.Println("Sections:")
	for _, name := range scene.AllSections {
		fmt.Printf("  %-12s %8d bytes\n", name, len(sections.Get(name)))
	}
	fmt.Println()

	fmt.Printf("Nodes (%d): %s\n", s.NodeCount(), tagSummary(s))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  #\tTAG\tNAME\tEDITABLE\tDETAIL")
	for i, n := range s.Nodes {
		b := n.Common()
		fmt.Fprintf(w, "  %d\t%s\t%s\t%t\t%s\n", i, n.Tag(), b.Name, b.Editable, nodeDetail(n))
	}
	w.Flush()
	fmt.Println()

	fmt.Printf("Objects:    %d (%d triangles)\n", len(s.Objects), s.TriangleCount())
	fmt.Printf("Characters: %d\n", len(s.Characters))
	fmt.Printf("Textures:   %d\n", len(s.Textures))
	for i, t := range s.Textures {
		fmt.Printf("  [%d] %dx%d %s (%d bytes)\n", i, t.Width, t.Height, t.Format, len(t.Pixels))
	}
	fmt.Printf("Materials:  %d\n", len(s.Materials))
	for i, m := range s.Materials {
		fmt.Printf("  [%d] %s (%s, %d textures)\n", i, m.Name, m.Src, len(m.TextureIDs))
	}

	if inspectParams {
		fmt.Println()
		return printParams(s)
	}
	return nil
}

var summaryTags = []scene.NodeTag{
	scene.TagGroup, scene.TagGeo, scene.TagSkinnedMesh, scene.TagLight, scene.TagCamera,
}

// tagSummary lists the node count per tag, skipping tags with no nodes.
func tagSummary(s *scene.Scene) string {
	parts := make([]string, 0, len(summaryTags))
	for _, tag := range summaryTags {
		if n := s.CountByTag(tag); n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", tag, n))
		}
	}
	return strings.Join(parts, " ")
}

func nodeDetail(n scene.Node) string {
	switch n := n.(type) {
	case *scene.Geo:
		return fmt.Sprintf("geo=%d tex=%d mat=%d rough=%g", n.GeoID, n.TextureID, n.MaterialID, n.Roughness)
	case *scene.GeoV1:
		return fmt.Sprintf("geo=%d tex=%d mat=%d (v1)", n.GeoID, n.TextureID, n.MaterialID)
	case *scene.SkinnedGeo:
		return fmt.Sprintf("geo=%d bones=%d root=%s", n.GeoID, len(n.BoneNames), n.RootBone)
	case *scene.SkinnedGeoV1:
		return fmt.Sprintf("geo=%d bones=%d root=%s (v1)", n.GeoID, len(n.BoneNames), n.RootBone)
	case *scene.Light:
		return fmt.Sprintf("%s intensity=%g range=%g exposure=%g", n.Kind, n.Intensity, n.Range, n.Exposure)
	case *scene.LightV1:
		return fmt.Sprintf("%s intensity=%g range=%g (v1)", n.Kind, n.Intensity, n.Range)
	case *scene.Camera:
		return fmt.Sprintf("fov=%g near=%g far=%g", n.FOV, n.Near, n.Far)
	default:
		return fmt.Sprintf("children=%d", n.Common().ChildCount)
	}
}

func printParams(s *scene.Scene) error {
	objects, err := entity.NewManager().Build(s, entity.NewIDAllocator())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OBJECT\tPARAM\tTYPE\tVALUE")
	for _, o := range objects {
		if !o.Editable {
			continue
		}
		for _, p := range o.Params() {
			fmt.Fprintf(w, "%d:%s\t%d:%s\t%s\t%v\n", o.ID, o.Name, p.ID(), p.Name(), p.Type(), p.Value())
		}
	}
	return w.Flush()
}
