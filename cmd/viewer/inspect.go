package main

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"physics-viewer/catalog"
	"physics-viewer/scene"
)

func listScenes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	scenes, err := catalog.Fetch(cmd.Context(), nil, cfg.Catalog.Feed)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTITLE\tASSET")
	for i, si := range scenes {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, si.Title, si.Asset)
	}
	return w.Flush()
}

func inspectAsset(cmd *cobra.Command, args []string) error {
	importer := &scene.GLTFImporter{Logger: log.Default()}
	asset, err := importer.Import(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	s := scene.New()
	s.Merge(asset)
	defer s.Dispose()

	nodes := 0
	s.Root.Traverse(func(*scene.Node) { nodes++ })
	fmt.Printf("%s\n", args[0])
	fmt.Printf("  nodes:   %d\n", nodes-1)
	fmt.Printf("  bodies:  %d\n", len(s.Bodies()))
	fmt.Printf("  cameras: %d\n", len(s.Cameras))
	fmt.Printf("  lights:  %d\n", len(s.Lights))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MESH\tTRIANGLES\tCLASS\tBODY")
	for _, n := range s.Meshes() {
		class := "static"
		dynamic, err := scene.IsDynamic(n)
		switch {
		case err != nil:
			class = "malformed"
		case dynamic:
			class = "dynamic"
		}
		body := "-"
		if owner, err := scene.BodyOwner(n); err == nil && owner != nil {
			body = fmt.Sprintf("%s (%s)", owner.Name, owner.Body.Motion)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", n.Name, n.Mesh.Triangles(), class, body)
	}
	return w.Flush()
}
