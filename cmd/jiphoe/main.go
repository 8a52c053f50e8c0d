package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seoulwatch/jiphoe/internal/api"
	"github.com/seoulwatch/jiphoe/internal/config"
	"github.com/seoulwatch/jiphoe/internal/fetcher"
	"github.com/seoulwatch/jiphoe/internal/geocode"
	"github.com/seoulwatch/jiphoe/internal/pipeline"
	"github.com/seoulwatch/jiphoe/internal/store"
)

var (
	cfgPath   string
	vworldKey string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jiphoe",
		Short: "Assembly-schedule crawler and geocoder for central Seoul",
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (YAML)")
	rootCmd.PersistentFlags().StringVar(&vworldKey, "vworld-key", "", "VWorld API key (overrides config and JIPHOE_VWORLD_KEY)")

	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(pdfCmd())
	rootCmd.AddCommand(geocodeCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if vworldKey != "" {
		cfg.VWorld.Key = vworldKey
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func openStore(cfg *config.Config) (*store.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return store.New(filepath.Join(cfg.DataDir, "jiphoe.db"))
}

func newPipeline(cfg *config.Config, log *slog.Logger) (*pipeline.Pipeline, *store.Store, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	var geo *geocode.Geocoder
	if cfg.VWorld.Key != "" {
		client := geocode.NewClient(cfg.ClientConfig(), log)
		geo = geocode.New(client, cfg.GeocoderConfig(), log)
	} else {
		log.Warn("no VWorld key configured, records will have no coordinates")
	}

	fc := fetcher.New(cfg.FetcherConfig(), log)
	p := pipeline.New(fc, geo, st, pipeline.Options{
		DataDir:          cfg.DataDir,
		MinCommon:        cfg.Merge.MinCommon,
		DistrictKeywords: cfg.Filter.Keywords,
	}, log)
	return p, st, nil
}

func printSummary(sum *pipeline.Summary) {
	fmt.Printf("Date: %s-%s-%s\n", sum.Date.Year, sum.Date.Month, sum.Date.Day)
	fmt.Printf("Rows: %d  Events: %d\n", sum.Rows, sum.Events)
	fmt.Printf("Added: %d  Updated: %d  Geocode misses: %d\n", sum.Added, sum.Updated, sum.GeocodeMisses)
	fmt.Printf("CSV: %s\n", sum.CSVPath)
	fmt.Printf("Filtered CSV: %s\n", sum.FilteredPath)
}

func crawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the latest traffic-notice post and store its events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger()
			p, st, err := newPipeline(cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			sum, err := p.RunSpatic(cmd.Context())
			if err != nil {
				return err
			}
			printSummary(sum)
			return nil
		},
	}
}

func pdfCmd() *cobra.Command {
	var localPDF string

	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Download today's bulletin PDF and store its events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger()
			p, st, err := newPipeline(cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			sum, err := p.RunSMPA(cmd.Context(), localPDF)
			if err != nil {
				return err
			}
			printSummary(sum)
			return nil
		},
	}

	cmd.Flags().StringVar(&localPDF, "pdf", "", "parse a local PDF file instead of downloading")
	return cmd
}

func geocodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "geocode [place]",
		Short: "Resolve a place string to coordinates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.VWorld.Key == "" {
				return fmt.Errorf("VWorld key required (set JIPHOE_VWORLD_KEY or --vworld-key)")
			}
			log := newLogger()
			client := geocode.NewClient(cfg.ClientConfig(), log)
			geo := geocode.New(client, cfg.GeocoderConfig(), log)

			place := strings.Join(args, " ")
			res := geo.Resolve(cmd.Context(), place, "")
			if res == nil {
				fmt.Printf("%s: no result\n", place)
				return nil
			}
			fmt.Printf("%s -> %.6f, %.6f (query: %s)\n", place, res.Lat, res.Lon, res.Query)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all stored records as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.LoadAll()
			if err != nil {
				return err
			}
			store.SortRecords(records)

			if out == "" {
				out = filepath.Join(cfg.DataDir, "집회정보_전체.csv")
			}
			if err := store.WriteCSV(out, records); err != nil {
				return err
			}
			fmt.Printf("Wrote %d records to %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output CSV path")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat-query endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			return api.New(st, cfg.Server.Addr, newLogger()).Run()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
