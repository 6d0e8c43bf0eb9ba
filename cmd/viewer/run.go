package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"physics-viewer/catalog"
	"physics-viewer/core"
	"physics-viewer/internal/opengl"
	"physics-viewer/physics"
	"physics-viewer/platform"
	"physics-viewer/scene"
	"physics-viewer/shadow"
	"physics-viewer/viewer"
)

func runViewer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := log.Default()

	fmt.Println("Starting physics viewer...")

	window, err := platform.NewWindow(platform.WindowConfig{
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		Title:     cfg.Window.Title,
		Resizable: true,
		VSync:     cfg.Window.VSync,
	})
	if err != nil {
		fmt.Printf("Failed to create window: %v\n", err)
		return err
	}
	defer window.Destroy()

	renderer, err := opengl.NewRenderer()
	if err != nil {
		fmt.Printf("Failed to create renderer: %v\n", err)
		return err
	}
	defer renderer.Destroy()

	maps := opengl.NewShadowMapAllocator()
	assigner := shadow.NewAssigner(maps, logger)
	assigner.MapSize = cfg.Shadows.MapSize
	assigner.PoissonSampling = cfg.Shadows.PoissonSampling
	fmt.Printf("Shadow maps enabled (%dx%d, poisson=%v)\n", cfg.Shadows.MapSize, cfg.Shadows.MapSize, cfg.Shadows.PoissonSampling)

	engine := physics.NewEngine()
	ctl := viewer.New(engine, &scene.GLTFImporter{Logger: logger}, assigner, viewerOptions(cfg), logger)
	ctl.AttachSurface(window)

	loop := core.NewFrameLoop(logger)
	loop.MaxDelta = cfg.Physics.MaxStep

	// load may be called from any goroutine; the swap itself runs on the loop.
	load := func(source string) {
		loop.Post(func() {
			done := ctl.LoadScene(ctx, source)
			go func() {
				if err := <-done; err != nil && !errors.Is(err, viewer.ErrSuperseded) && !errors.Is(err, viewer.ErrClosed) {
					fmt.Printf("Load failed: %v\n", err)
				}
			}()
		})
	}

	window.SetKeyCallback(func(ev core.KeyEvent) {
		if ev.Type == core.KeyDown && ev.Key == core.KeyEscape {
			window.Handle.SetShouldClose(true)
			return
		}
		loop.Post(func() { ctl.HandleKey(ev) })
	})
	window.SetDropCallback(func(paths []string) {
		for _, p := range paths {
			switch strings.ToLower(filepath.Ext(p)) {
			case ".glb", ".gltf":
				fmt.Printf("Loading dropped file %s\n", p)
				load(p)
				return
			}
		}
	})

	loop.Register(ctl.Frame)
	loop.Register(func(float32) {
		w, h := window.GetFramebufferSize()
		renderer.SetViewport(w, h)
		renderer.Render(ctl.Current(), ctl.Spring().Target(), ctl.Shadows())
	})

	var initial string
	if len(args) == 1 {
		initial = args[0]
		load(initial)
	}
	if cfg.Catalog.Feed != "" {
		go startCatalog(ctx, cfg.Catalog.Feed, cfg.Catalog.UIAddr, initial == "", load, logger)
	}

	for !window.ShouldClose() && ctx.Err() == nil {
		window.PollEvents()
		loop.Frame(time.Now())
		window.SwapBuffers()
	}

	if err := ctl.Dispose(); err != nil {
		fmt.Printf("Scene teardown failed: %v\n", err)
	}
	if n := engine.Live(); n != 0 {
		fmt.Printf("Warning: %d physics backends still attached\n", n)
	}
	if n := maps.Live(); n != 0 {
		fmt.Printf("Warning: %d shadow maps still allocated\n", n)
	}
	fmt.Println("Viewer closed")
	return nil
}

// startCatalog fetches the feed, optionally loads its first entry and serves
// the selection page until ctx ends.
func startCatalog(ctx context.Context, feed, addr string, autoLoad bool, load func(string), logger *log.Logger) {
	scenes, err := catalog.Fetch(ctx, nil, feed)
	if err != nil {
		fmt.Printf("Scene list unavailable: %v\n", err)
		return
	}
	fmt.Printf("Scene list: %d entries\n", len(scenes))

	menu := catalog.NewMenu(scenes, load, logger)
	if autoLoad {
		if err := menu.Start(); err != nil {
			fmt.Printf("Scene list: %v\n", err)
		}
	}
	if addr == "" || addr == "off" {
		return
	}

	srv := &http.Server{Addr: addr, Handler: menu, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()
	fmt.Printf("Scene list served at http://%s/\n", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Printf("Scene list server failed: %v\n", err)
	}
}
