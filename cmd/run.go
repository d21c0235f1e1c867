package cmd

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/rendergraph/engine"
	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/testbed"
)

var (
	frames     uint64
	outputPath string
	watch      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Render the testbed game headless",
	Long:  "Loads the engine config, renders frames with the software device and writes the last frame as PNG.",
	RunE:  runEngine,
}

func init() {
	runCmd.Flags().Uint64Var(&frames, "frames", 0, "number of frames to render, overrides max_frames")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "PNG file the last frame is written to, overrides output")
	runCmd.Flags().BoolVar(&watch, "watch", false, "reload the pipeline when its document changes")
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := engine.LoadApplicationConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if frames > 0 {
		cfg.MaxFrames = frames
	}
	if outputPath != "" {
		cfg.Output = outputPath
	}
	if watch {
		cfg.Watch = true
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	tg, err := testbed.NewTestGame()
	if err != nil {
		return err
	}
	e, err := engine.New(cfg, tg.Game)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Shutdown(); err != nil {
			core.LogError(err.Error())
		}
	}()
	if err := e.Initialize(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := e.Run(ctx); err != nil {
		return err
	}

	if cfg.Output != "" {
		if err := savePNG(cfg.Output, e); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "frame %d written to %s\n", e.FrameCount(), cfg.Output)
	}
	return nil
}

func savePNG(path string, e *engine.Engine) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, e.Device().Framebuffer()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
