package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/dustin/go-humanize"
	"github.com/handiism/audiobook-downloader/internal/assemble"
	"github.com/handiism/audiobook-downloader/internal/config"
	"github.com/handiism/audiobook-downloader/internal/download"
	"github.com/handiism/audiobook-downloader/internal/http"
	"github.com/handiism/audiobook-downloader/internal/source"
	"github.com/vbauerster/mpb/v6"
	"github.com/vbauerster/mpb/v6/decor"
)

type args struct {
	Manifest    string `arg:"positional,required" help:"audiobook manifest (YAML or JSON)"`
	Config      string `arg:"-c,--config" help:"settings file (JSON or YAML)"`
	Output      string `arg:"-o,--output" help:"output location template, e.g. /books/{author}/{title}"`
	Format      string `arg:"-f,--format" help:"audio container of the combined file, e.g. mp3, m4b"`
	Combine     bool   `arg:"--combine" help:"combine all parts into a single file"`
	Concurrency int    `arg:"-j,--concurrency" default:"-1" help:"maximum parallel downloads, 0 for no limit"`
	Playlist    bool   `arg:"-p,--playlist" help:"create a playlist when keeping separate files"`
	FFmpeg      string `arg:"--ffmpeg" help:"path to the ffmpeg binary"`
	NoProgress  bool   `arg:"--no-progress" help:"do not draw a progress bar"`
	Verbose     bool   `arg:"-v,--verbose" help:"show verbose output"`
}

func (args) Description() string {
	return "Audiobook Downloader - download and assemble audiobooks\n\nFor interactive mode, use: audiobook-tui"
}

func main() {
	var a args
	arg.MustParse(&a)

	// Load config
	settings := config.DefaultSettings()
	if a.Config != "" {
		var err error
		settings, err = config.Load(a.Config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// Apply flags
	if a.Output != "" {
		settings.OutputTemplate = a.Output
	}
	if a.Format != "" {
		settings.OutputFormat = a.Format
	}
	if a.Combine {
		settings.Combine = true
	}
	if a.Concurrency >= 0 {
		settings.MaxConcurrentDownloads = a.Concurrency
	}
	if a.Playlist {
		settings.CreatePlaylist = true
	}
	if a.FFmpeg != "" {
		settings.FFmpegPath = a.FFmpeg
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	fmt.Println("🎧 Audiobook Downloader")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	var display *progressDisplay
	if !a.NoProgress {
		display = newProgressDisplay(ctx)
	}
	printer := &eventPrinter{verbose: a.Verbose, display: display}

	src := source.NewManifestSource(a.Manifest, http.NewClient(settings.ToHTTPOptions()))
	manager, err := download.NewManager(settings, src, printer.print)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if display != nil {
		go display.follow(manager)
	}
	artifact, err := manager.Run(ctx)
	if display != nil {
		display.stop(err == nil)
	}
	printer.flush()

	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nDownload cancelled.")
			os.Exit(130)
		}
		if errors.Is(err, assemble.ErrCombinedFileMissing) {
			fmt.Fprintln(os.Stderr, "Intermediate files were kept for inspection.")
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	received, total, filesReceived, filesTotal := manager.GetProgress()
	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("✨ Complete! Downloaded %d/%d files (%s)\n", filesReceived, filesTotal, humanize.Bytes(uint64(received)))
	if total > 0 && received < total {
		fmt.Printf("   (%s expected)\n", humanize.Bytes(uint64(total)))
	}
	fmt.Printf("   %s: %s\n", artifact.Kind, artifact.Path)
	if artifact.CoverPath != "" {
		fmt.Printf("   cover: %s\n", artifact.CoverPath)
	}
	if artifact.PlaylistPath != "" {
		fmt.Printf("   playlist: %s\n", artifact.PlaylistPath)
	}
}

// eventPrinter prints pipeline events. While the progress bar is drawn,
// events are buffered and the latest one is shown next to the bar.
type eventPrinter struct {
	verbose bool
	display *progressDisplay

	mu      sync.Mutex
	pending []string
}

func (p *eventPrinter) print(event download.ProgressEvent) {
	if event.Level == download.LevelVerbose && !p.verbose {
		return
	}

	prefix := ""
	switch event.Level {
	case download.LevelError:
		prefix = "❌ "
	case download.LevelWarning:
		prefix = "⚠️  "
	case download.LevelSuccess:
		prefix = "✅ "
	case download.LevelInfo:
		prefix = "ℹ️  "
	default:
		prefix = "   "
	}

	line := prefix + event.Message
	if p.display != nil && p.display.active() {
		p.display.setStatus(event.Message)
		p.mu.Lock()
		p.pending = append(p.pending, line)
		p.mu.Unlock()
		return
	}
	p.flush()
	fmt.Println(line)
}

func (p *eventPrinter) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, line := range p.pending {
		fmt.Println(line)
	}
	p.pending = nil
}

// progressDisplay draws the aggregate byte progress with mpb.
type progressDisplay struct {
	progress *mpb.Progress
	bar      *mpb.Bar

	mu      sync.Mutex
	status  string
	running bool
	done    chan struct{}
}

func newProgressDisplay(ctx context.Context) *progressDisplay {
	d := &progressDisplay{
		progress: mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithRefreshRate(150*time.Millisecond)),
		running:  true,
		done:     make(chan struct{}),
	}
	d.bar = d.progress.AddBar(0,
		mpb.PrependDecorators(
			decor.Name("Downloading ", decor.WC{W: 12}),
			decor.CountersKibiByte("% .1f / % .1f", decor.WC{W: 22}),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 6}),
			decor.Any(func(decor.Statistics) string {
				return "  " + d.currentStatus()
			}),
		),
	)
	return d
}

// follow polls the manager until stop is called.
func (d *progressDisplay) follow(manager *download.Manager) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-d.done:
			return
		case <-ticker.C:
			received, total, _, _ := manager.GetProgress()
			if total < received {
				total = received
			}
			d.bar.SetTotal(total, false)
			d.bar.SetCurrent(received)
		}
	}
}

func (d *progressDisplay) stop(success bool) {
	d.mu.Lock()
	d.running = false
	d.mu.Unlock()
	close(d.done)

	if success {
		current := d.bar.Current()
		d.bar.SetTotal(current, true)
	} else {
		d.bar.Abort(false)
	}
	d.progress.Wait()
}

func (d *progressDisplay) active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *progressDisplay) setStatus(s string) {
	d.mu.Lock()
	d.status = s
	d.mu.Unlock()
}

func (d *progressDisplay) currentStatus() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}
