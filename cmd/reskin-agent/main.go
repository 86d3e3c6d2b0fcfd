// Command reskin-agent drives a live browser tab: it asks the modification
// service for changes, applies them to the page, persists them locally, and
// keeps them asserted while the page mutates.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/reskindev/reskin/internal/applier"
	"github.com/reskindev/reskin/internal/bridge"
	"github.com/reskindev/reskin/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		serverURL  string
		pageURL    string
		command    string
		dbPath     string
		browserURL string
		replayOnly bool
		verbose    bool
	)
	flag.StringVar(&serverURL, "server", "http://localhost:5000", "Modification service base URL")
	flag.StringVar(&pageURL, "url", "", "Page to open and modify")
	flag.StringVar(&command, "command", "", "Modification instruction, e.g. 'make the title red'")
	flag.StringVar(&dbPath, "db", defaultDBPath(), "Path to the local modification database")
	flag.StringVar(&browserURL, "browser", "", "Control URL of a running Chrome; empty launches a visible instance")
	flag.BoolVar(&replayOnly, "replay", false, "Skip the service call and only re-apply the saved set")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if strings.TrimSpace(pageURL) == "" {
		log.Fatal().Msg("-url is required")
	}
	if !replayOnly && strings.TrimSpace(command) == "" {
		log.Fatal().Msg("-command is required unless -replay is set")
	}

	if err := run(serverURL, pageURL, command, dbPath, browserURL, replayOnly); err != nil {
		log.Fatal().Err(err).Msg("agent failed")
	}
}

func run(serverURL, pageURL, command, dbPath, browserURL string, replayOnly bool) error {
	browser, err := openBrowser(browserURL)
	if err != nil {
		return err
	}
	defer browser.Close()

	page, err := stealth.Page(browser)
	if err != nil {
		return fmt.Errorf("create tab: %w", err)
	}
	if err := page.Navigate(pageURL); err != nil {
		return fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		log.Warn().Err(err).Msg("wait load timed out, continuing")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	applicator := &applier.Applicator{Page: &applier.RodPage{Page: page}}
	messenger := &bridge.Messenger{
		Client:     &bridge.Client{BaseURL: serverURL, Timeout: 5 * time.Minute},
		Applicator: applicator,
		Store:      st,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Saved modifications come back first so a refreshed page looks right
	// before any new instruction runs.
	if ack, err := messenger.Replay(ctx); err != nil {
		log.Warn().Err(err).Msg("replay failed")
	} else {
		log.Info().Stringer("status", ack.Status).Msg("replay complete")
	}

	if !replayOnly {
		ack, err := messenger.Modify(ctx, pageURL, command)
		if err != nil {
			return fmt.Errorf("modify: %w", err)
		}
		log.Info().Stringer("status", ack.Status).Int("applied", ack.Report.Applied).Msg("modification cycle complete")
	}

	// The watcher asserts whatever the store now holds, which Modify just
	// refreshed.
	sv, err := st.Load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info().Msg("nothing to keep asserted, exiting")
			return nil
		}
		return err
	}

	watcher := &applier.Watcher{Applicator: applicator}
	stopWatch, err := watcher.Watch(ctx, sv.Combined)
	if err != nil {
		return fmt.Errorf("watch page: %w", err)
	}
	defer stopWatch()

	log.Info().Str("url", pageURL).Msg("modifications active, press Ctrl-C to stop")
	<-ctx.Done()
	return nil
}

func openBrowser(controlURL string) (*rod.Browser, error) {
	if strings.TrimSpace(controlURL) != "" {
		b := rod.New().ControlURL(controlURL)
		if err := b.Connect(); err != nil {
			return nil, fmt.Errorf("connect chrome %s: %w", controlURL, err)
		}
		return b, nil
	}
	u, err := launcher.New().Headless(false).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect chrome: %w", err)
	}
	return b, nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "reskin.db"
	}
	return filepath.Join(home, ".reskin", "reskin.db")
}
