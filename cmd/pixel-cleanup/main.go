package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ironsheep/pixel-cleanup/internal/cleaner"
	"github.com/ironsheep/pixel-cleanup/internal/imageio"
	"github.com/ironsheep/pixel-cleanup/internal/server"
	"github.com/ironsheep/pixel-cleanup/internal/worker"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("pixel-cleanup %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		case "presets":
			for _, p := range cleaner.Presets() {
				fmt.Printf("%-16s %s\n", p.Name, p.Description)
			}
			return
		case "clean":
			log.SetFlags(0)
			if err := runClean(os.Args[2:]); err != nil {
				log.Fatalf("clean: %v", err)
			}
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := server.ConfigFromEnv()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if cfg.Debug() {
		log.Printf("Pixel Cleanup MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	srv := server.NewWithConfig(cfg)
	defer srv.Close()
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printUsage() {
	fmt.Println("pixel-cleanup - pixel-art and logo cleanup tools")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pixel-cleanup                         Run the MCP server on stdin/stdout")
	fmt.Println("  pixel-cleanup clean [flags] IN OUT    Clean one image with a preset")
	fmt.Println("  pixel-cleanup presets                 List presets")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  PIXEL_CLEANUP_LOG_LEVEL=debug       Enable debug logging")
	fmt.Println("  PIXEL_CLEANUP_WORKERS=N             Worker pool size (0 = CPU count, -1 = off)")
	fmt.Println("  PIXEL_CLEANUP_OFFLOAD_PIXELS=N      Smallest image sent to the pool")
	fmt.Println()
	fmt.Println("The server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func runClean(args []string) error {
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	preset := fs.String("preset", string(cleaner.LogoStandard), "pipeline preset")
	workers := fs.Int("workers", 0, "worker pool size (0 = CPU count, -1 = run in process)")
	skip := fs.String("skip", "", "comma-separated stages to skip")
	verbose := fs.Bool("verbose", false, "print stage progress")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("expected input and output paths, got %d arguments", fs.NArg())
	}
	in, out := fs.Arg(0), fs.Arg(1)

	opts := cleaner.Options{Preset: cleaner.Preset(*preset)}
	if *skip != "" {
		for _, s := range strings.Split(*skip, ",") {
			opts.Skip = append(opts.Skip, cleaner.Stage(strings.TrimSpace(s)))
		}
	}
	if *verbose {
		opts.Progress = func(percent float64, stage string) {
			log.Printf("%3.0f%% %s", percent, stage)
		}
	}

	var exec worker.Executor
	if *workers >= 0 {
		pool := worker.NewPool(*workers, cleaner.Registry())
		if err := pool.Init(); err != nil {
			return err
		}
		defer pool.Close()
		exec = worker.NewFallback(pool, worker.NewLocal(cleaner.Registry()), server.DefaultOffloadPixels)
	}

	src, err := imageio.NewCache().Load(in)
	if err != nil {
		return err
	}
	dst, err := cleaner.New(exec).Clean(context.Background(), src, opts)
	if err != nil {
		return err
	}
	if err := imageio.Save(dst, out); err != nil {
		return err
	}

	diff, err := imageio.Compare(src, dst)
	if err != nil {
		return err
	}
	log.Printf("%s -> %s: %d of %d pixels changed", in, out, diff.ChangedPixels, diff.TotalPixels)
	return nil
}
