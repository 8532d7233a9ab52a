// Command fanscene opens a window showing the animated fan scene, or with
// -headless replays a script without a window.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/nishith672/fanscene"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML or YAML config file")
		scriptPath = flag.String("script", "", "JSON playback script")
		exportDir  = flag.String("export-dir", "", "directory for exported glTF documents")
		shotDir    = flag.String("screenshot-dir", "", "directory for screenshots")
		headless   = flag.Bool("headless", false, "replay -script without opening a window")
		debug      = flag.Bool("debug", false, "log per-frame timings")
		showFPS    = flag.Bool("fps", false, "show FPS overlay")
		scroll     = flag.Float64("scroll-range", 3000, "maximum scroll offset")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	fanscene.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := fanscene.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = fanscene.LoadConfig(*configPath); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if *exportDir != "" {
		cfg.Render.ExportDir = *exportDir
	}
	if *shotDir != "" {
		cfg.Render.ScreenshotDir = *shotDir
	}
	if *debug {
		cfg.Render.Debug = true
	}

	var script *fanscene.Script
	if *scriptPath != "" {
		data, err := os.ReadFile(*scriptPath)
		if err != nil {
			log.Fatalf("script: %v", err)
		}
		if script, err = fanscene.LoadScript(data); err != nil {
			log.Fatalf("script: %v", err)
		}
	}

	s, err := fanscene.NewSession(cfg)
	if err != nil {
		log.Fatalf("session: %v", err)
	}

	if *headless {
		if script == nil {
			log.Fatal("-headless requires -script")
		}
		if err := fanscene.Play(s, script, 0); err != nil {
			log.Fatalf("playback: %v", err)
		}
		for _, path := range script.Exported() {
			log.Printf("exported %s", path)
		}
		return
	}

	err = fanscene.Run(s, fanscene.RunConfig{
		Title:       "fanscene",
		ScrollRange: *scroll,
		Script:      script,
		ShowFPS:     *showFPS,
	})
	if err != nil {
		log.Fatal(err)
	}
}
