package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bitmark-inc/consent-api/api"
	"github.com/bitmark-inc/consent-api/config"
	"github.com/bitmark-inc/consent-api/crm"
	"github.com/bitmark-inc/consent-api/document"
	"github.com/bitmark-inc/consent-api/external/consentapi"
	"github.com/bitmark-inc/consent-api/external/ghl"
	"github.com/bitmark-inc/consent-api/form"
	"github.com/bitmark-inc/consent-api/pipeline"
	"github.com/bitmark-inc/consent-api/schema"
	"github.com/bitmark-inc/consent-api/storage"
	"github.com/bitmark-inc/consent-api/store"
	"github.com/bitmark-inc/consent-api/variant"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "consent-api",
		Short: "Patient consent form service",
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to a yaml config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(renderCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")

	c, err := config.Load(file)
	if err != nil {
		return nil, err
	}
	c.SetupLogger()
	return c, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the consent api server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServer(c)
		},
	}
}

func runServer(c *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connCtx, options.Client().ApplyURI(c.Mongo.URI))
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("fail to disconnect mongodb")
		}
	}()

	if err := schema.NewMongoDBIndexer(c.Mongo.URI, c.Mongo.Database).IndexAll(); err != nil {
		return fmt.Errorf("fail to create indexes: %w", err)
	}

	registry, err := variant.Default()
	if err != nil {
		return err
	}

	orphans, err := c.Orphans()
	if err != nil {
		return err
	}

	renderer := document.NewRenderer()
	readiness := pipeline.NewReadiness(pipeline.DefaultCapabilities(renderer)...)
	readiness.Start(ctx)

	opts := api.Options{
		TraceMode:    c.Server.Trace,
		AllowOrigins: c.Server.AllowOrigins,
		Store:        store.NewMongoStore(client, c.Mongo.Database),
		Registry:     registry,
		Artifacts:    storage.NewSupabaseStore(c.Supabase.URL, c.Supabase.Key, c.Supabase.Bucket),
		Renderer:     renderer,
		Readiness:    readiness,
		OrphanPolicy: orphans,
	}

	if c.GHL.Token != "" {
		opts.Syncer = crm.NewSyncer(ghl.New(c.GHL.Endpoint, c.GHL.Token, c.GHL.LocationID))
	} else {
		log.Warn("ghl token is not set, crm sync is disabled")
	}

	// a remote consent api replaces the in-process repository and sync
	if c.ConsentAPI.Endpoint != "" {
		remote := consentapi.New(c.ConsentAPI.Endpoint)
		opts.Repository = remote
		opts.Relationship = remote
		log.WithField("endpoint", remote.Endpoint()).Info("using remote consent api")
	}

	server := api.NewServer(opts)

	errc := make(chan error, 1)
	go func() {
		errc <- server.Run(c.Server.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <consent-type> <draft.json>",
		Short: "Render a consent document from a json draft",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}

			sigFile, _ := cmd.Flags().GetString("signature")
			out, _ := cmd.Flags().GetString("out")
			compress, _ := cmd.Flags().GetBool("compress")

			t, err := schema.ParseConsentType(args[0])
			if err != nil {
				return err
			}

			registry, err := variant.Default()
			if err != nil {
				return err
			}

			v, err := registry.Get(t)
			if err != nil {
				return err
			}

			b, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			var draft form.Draft
			if err := json.Unmarshal(b, &draft); err != nil {
				return err
			}

			var sig []byte
			if sigFile != "" {
				if sig, err = os.ReadFile(sigFile); err != nil {
					return err
				}
			}

			doc, err := document.NewRenderer(document.WithCompression(compress)).Render(document.Snapshot{
				Variant:   v,
				Draft:     draft,
				Signature: sig,
				CreatedAt: time.Now(),
			})
			if err != nil {
				return err
			}

			if out == "" {
				out = fmt.Sprintf("%s-consent.pdf", t)
			}
			if err := os.WriteFile(out, doc.Bytes, 0o644); err != nil {
				return err
			}

			log.WithField("file", out).WithField("pages", doc.Pages).Info("document rendered")
			return nil
		},
	}
	cmd.Flags().StringP("signature", "s", "", "path to a png signature")
	cmd.Flags().StringP("out", "o", "", "output pdf path")
	cmd.Flags().Bool("compress", true, "compress pdf streams")
	return cmd
}
