package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/spf13/cobra"

	"github.com/joaogabrielsantos/portfolio/internal/content"
	"github.com/joaogabrielsantos/portfolio/internal/i18n"
	"github.com/joaogabrielsantos/portfolio/internal/richtext"
	"github.com/joaogabrielsantos/portfolio/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:          "portfolio",
		Short:        "Bilingual personal portfolio site",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.AddCommand(serve, newCheckCmd(), newRenderCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			src, err := loadContent(ctx, cfg)
			if err != nil {
				return err
			}

			db, err := store.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			log.Println("Privacy: visitor tracking enabled with hashed IP addresses")

			s := newServer(cfg, src, db, smtpMailer{cfg: cfg.SMTP})
			if err := s.run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}

// loadContent returns the embedded site, or the CONTENT_FILE override. With
// CONTENT_WATCH the override is reloaded when it changes.
func loadContent(ctx context.Context, cfg Config) (content.Source, error) {
	if cfg.ContentFile == "" {
		site, err := content.LoadEmbedded()
		if err != nil {
			return nil, err
		}
		return content.Static(site), nil
	}

	w, err := content.NewWatcher(cfg.ContentFile)
	if err != nil {
		return nil, err
	}
	if cfg.WatchFile {
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Printf("Content watcher stopped: %v", err)
			}
		}()
		log.Printf("Watching %s for content changes", cfg.ContentFile)
	}
	return w, nil
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a content file (defaults to the embedded one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				site *content.Site
				err  error
			)
			if len(args) == 1 {
				dir, name := filepath.Split(args[0])
				site, err = content.Load(os.DirFS(filepath.Clean(dir)), name)
			} else {
				site, err = content.LoadEmbedded()
			}
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), site)
			return nil
		},
	}
}

func printSummary(w io.Writer, site *content.Site) {
	fmt.Fprintf(w, "%s: OK\n", site.Name)
	for _, lang := range i18n.Supported {
		d := site.Dictionary(lang)
		fmt.Fprintf(w, "\n[%s] %d timeline events, %d toolkit items\n",
			lang, len(d.Timeline.Events), len(d.Toolkit.Items))
		for _, link := range d.Links() {
			fmt.Fprintf(w, "  %s -> %s\n", link.Text, link.URL)
		}
	}
}

func newRenderCmd() *cobra.Command {
	var asHTML bool
	cmd := &cobra.Command{
		Use:   "render TEXT",
		Short: "Show how a rich-text string is tokenized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if asHTML {
				fmt.Fprintln(out, richtext.RenderHTML(args[0]))
				return nil
			}
			for _, tok := range richtext.Render(args[0]) {
				if tok.Kind == richtext.Link {
					fmt.Fprintf(out, "%-11s %q %s\n", tok.Kind, tok.Text, tok.URL)
					continue
				}
				fmt.Fprintf(out, "%-11s %q\n", tok.Kind, tok.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "print the rendered HTML instead of tokens")
	return cmd
}
