package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/cobra"

	"physics-viewer/config"
	"physics-viewer/core"
	"physics-viewer/viewer"
)

var (
	configFile string
	feedURL    string
	uiAddr     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "viewer [asset]",
		Short: "interactive glTF physics scene viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runViewer,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&feedURL, "feed", "", "scene list URL (overrides catalog.feed)")
	rootCmd.Flags().StringVar(&uiAddr, "ui", "", "scene list listen address (overrides catalog.ui_addr, \"off\" disables)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list scenes in the feed",
		Args:  cobra.NoArgs,
		RunE:  listScenes,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect [asset]",
		Short: "import an asset and report its nodes and bodies",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectAsset,
	}

	rootCmd.AddCommand(listCmd, inspectCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig reads --config over the defaults and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if feedURL != "" {
		cfg.Catalog.Feed = feedURL
	}
	if uiAddr != "" {
		cfg.Catalog.UIAddr = uiAddr
	}
	return cfg, nil
}

func viewerOptions(cfg *config.Config) viewer.Options {
	opts := viewer.DefaultOptions()
	opts.Gravity = mgl32.Vec3(cfg.Physics.Gravity)
	opts.CameraPosition = mgl32.Vec3(cfg.Camera.Position)
	opts.CameraTarget = mgl32.Vec3(cfg.Camera.Target)
	opts.FOV = cfg.Camera.FOV
	opts.Near = cfg.Camera.Near
	opts.Far = cfg.Camera.Far
	opts.CameraSpeed = cfg.Camera.Speed
	opts.Environment.TextureURL = cfg.Environment.TextureURL
	opts.Environment.SkyboxSize = cfg.Environment.SkyboxSize
	sky := cfg.Environment.SkyColor
	opts.Environment.SkyColor = core.Color{R: sky[0], G: sky[1], B: sky[2], A: sky[3]}
	opts.PickKey = cfg.PickKey()
	opts.PauseKey = cfg.PauseKey()
	opts.SpringStiffness = cfg.Spring.Stiffness
	opts.SpringDamping = cfg.Spring.Damping
	opts.SpringMaxImpulse = cfg.Spring.MaxImpulse
	return opts
}
