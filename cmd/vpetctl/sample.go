package main

import (
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/cobra"

	"github.com/Faultbox/vpet-sync/internal/logger"
	"github.com/Faultbox/vpet-sync/pkg/scene"
)

var (
	sampleLegacy  bool
	sampleTexture string
)

var sampleCmd = &cobra.Command{
	Use:   "sample [dir]",
	Short: "Write a sample scene as section files",
	Long: `Write a small scene with one node of every kind, a mesh, a texture, a
material and a character binding.

Examples:
  vpetctl sample ./scene
  vpetctl sample ./scene-v1 --legacy
  vpetctl sample ./scene --texture albedo.png`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSample,
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().BoolVar(&sampleLegacy, "legacy", false, "Write the version 1 layout")
	sampleCmd.Flags().StringVar(&sampleTexture, "texture", "", "Image file (PNG, JPEG, BMP) to use as the texture")
}

func runSample(cmd *cobra.Command, args []string) error {
	dir := sceneDir(args)

	tex := checkerTexture(8)
	if sampleTexture != "" {
		t, err := scene.LoadTextureFile(sampleTexture)
		if err != nil {
			return err
		}
		tex = t
	}

	s := sampleScene(sampleLegacy, tex)
	sections, err := scene.NewCodec(logger.Named("codec")).Encode(s)
	if err != nil {
		return err
	}
	if err := scene.SaveSections(dir, sections); err != nil {
		return err
	}

	fmt.Printf("Wrote version %d scene to %s (%d nodes, %d bytes)\n",
		s.Header.Version, dir, s.NodeCount(), sections.Size())
	return nil
}

// checkerTexture returns a size×size black and white checkerboard.
func checkerTexture(size int) scene.TexturePackage {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.RGBA{A: 255}
			if (x+y)%2 == 0 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return scene.TextureFromImage(img)
}

func sampleScene(legacy bool, tex scene.TexturePackage) *scene.Scene {
	s := scene.New()

	root := scene.DefaultBase("root")
	root.ChildCount = 4

	cube := scene.DefaultBase("cube")
	cube.Editable = true
	cube.Position = mgl32.Vec3{0, 0.5, 0}

	puppet := scene.DefaultBase("puppet")
	puppet.Editable = true
	puppet.Position = mgl32.Vec3{2, 0, 0}
	skin := scene.Skin{
		RootBone:     "hips",
		BoundCenter:  mgl32.Vec3{0, 1, 0},
		BoundExtents: mgl32.Vec3{0.5, 1, 0.5},
		BindPoses:    []mgl32.Mat4{mgl32.Ident4(), mgl32.Translate3D(0, 1, 0)},
		BoneNames:    []string{"hips", "spine"},
	}

	key := scene.DefaultBase("key")
	key.Editable = true
	key.Position = mgl32.Vec3{-2, 4, 2}
	key.Rotation = mgl32.QuatRotate(mgl32.DegToRad(-45), mgl32.Vec3{1, 0, 0})

	cam := scene.DefaultBase("camera")
	cam.Editable = true
	cam.Position = mgl32.Vec3{0, 1.6, 6}

	camera := &scene.Camera{NodeBase: cam, FOV: 60, Near: 0.1, Far: 1000}

	if legacy {
		s.Header.Version = scene.LegacyVersion
		s.Nodes = []scene.Node{
			&scene.Group{NodeBase: root},
			&scene.GeoV1{NodeBase: cube, GeoID: 0, TextureID: 0, MaterialID: 0},
			&scene.SkinnedGeoV1{GeoV1: scene.GeoV1{NodeBase: puppet, GeoID: 0, TextureID: 0, MaterialID: -1}, Skin: skin},
			&scene.LightV1{NodeBase: key, Kind: scene.LightSpot, Intensity: 2,
				Angle: 45, Range: 20, Color: mgl32.Vec3{1, 0.95, 0.8}},
			camera,
		}
	} else {
		s.Nodes = []scene.Node{
			&scene.Group{NodeBase: root},
			&scene.Geo{NodeBase: cube, GeoID: 0, TextureID: 0, MaterialID: 0,
				Roughness: 0.4, Color: mgl32.Vec4{0.8, 0.2, 0.2, 1}},
			&scene.SkinnedGeo{Geo: scene.Geo{NodeBase: puppet, GeoID: 0, TextureID: 0, MaterialID: -1,
				Roughness: 0.5, Color: mgl32.Vec4{1, 1, 1, 1}}, Skin: skin},
			&scene.Light{NodeBase: key, Kind: scene.LightSpot, Intensity: 2,
				Angle: 45, Range: 20, Exposure: 1, Color: mgl32.Vec3{1, 0.95, 0.8}},
			camera,
		}
	}

	s.Objects = []scene.ObjectPackage{{
		Vertices: []mgl32.Vec3{{-0.5, 0, -0.5}, {0.5, 0, -0.5}, {0.5, 0, 0.5}, {-0.5, 0, 0.5}},
		Indices:  []int32{0, 1, 2, 0, 2, 3},
		Normals:  []mgl32.Vec3{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0}},
		UVs:      []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
	}}
	s.Textures = []scene.TexturePackage{tex}
	s.Materials = []scene.MaterialPackage{{
		Type:           scene.MaterialStandard,
		Name:           "checker",
		Src:            "Standard",
		MaterialID:     0,
		TextureIDs:     []int32{0},
		TextureOffsets: []float32{0, 0},
		TextureScales:  []float32{1, 1},
		ShaderConfig:   []bool{true},
	}}
	s.Characters = []scene.CharacterPackage{{
		BoneMapping:     []int32{0, 1},
		SkeletonMapping: []int32{0, 1},
		SceneObjectID:   2,
		RootID:          0,
		BonePositions:   []mgl32.Vec3{{0, 1, 0}, {0, 1.4, 0}},
		BoneRotations:   []mgl32.Quat{mgl32.QuatIdent(), mgl32.QuatIdent()},
		BoneScales:      []mgl32.Vec3{{1, 1, 1}, {1, 1, 1}},
		Name:            "puppet",
	}}
	return s
}
