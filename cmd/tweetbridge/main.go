// Copyright 2024-2026 Aiku AI

// Command tweetbridge forwards a live Twitter post stream to chat channel
// webhooks. It filters posts against per-channel subscription rules,
// rewrites the post text from its entity annotations, and keeps the stream
// session alive with backoff-based reconnection.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/aiku/tweetbridge/pkg/discord"
	"github.com/aiku/tweetbridge/pkg/forwarder"
	"github.com/aiku/tweetbridge/pkg/forwarder/tweetfmt"
	"github.com/aiku/tweetbridge/pkg/subs"
	"github.com/aiku/tweetbridge/pkg/twitter"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	writeExample := flag.Bool("example-config", false, "print the example config and exit")
	flag.Parse()

	if *writeExample {
		fmt.Print(forwarder.ExampleConfig)
		return
	}

	// Credentials can live in a .env file next to the binary.
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := forwarder.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}
	applyEnvOverrides(&cfg.Twitter)

	store, err := subs.OpenFileStore(cfg.SubscriptionsPath, log)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SubscriptionsPath).Msg("Failed to open subscription store")
	}

	sender := discord.NewWebhookSender(cfg.Discord.Webhooks, log)
	client := twitter.NewClient(twitter.Credentials{
		ConsumerKey:    cfg.Twitter.ConsumerKey,
		ConsumerSecret: cfg.Twitter.ConsumerSecret,
		AccessToken:    cfg.Twitter.AccessToken,
		AccessSecret:   cfg.Twitter.AccessSecret,
	}, log, twitter.WithStreamURL(cfg.Twitter.StreamURL))

	var unfurler tweetfmt.Unfurler
	if cfg.UnfurlPreviews {
		unfurler = tweetfmt.NewHTTPUnfurler(log)
	}

	fwd := forwarder.New(cfg, store, sender, client, unfurler, log)
	if err := fwd.Connect(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open stream")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("Shutting down")
	fwd.Destroy()
}

// applyEnvOverrides lets credentials come from the environment instead of
// the config file.
func applyEnvOverrides(cfg *forwarder.TwitterConfig) {
	if v := os.Getenv("TWITTER_CONSUMER_KEY"); v != "" {
		cfg.ConsumerKey = v
	}
	if v := os.Getenv("TWITTER_CONSUMER_SECRET"); v != "" {
		cfg.ConsumerSecret = v
	}
	if v := os.Getenv("TWITTER_ACCESS_TOKEN"); v != "" {
		cfg.AccessToken = v
	}
	if v := os.Getenv("TWITTER_ACCESS_SECRET"); v != "" {
		cfg.AccessSecret = v
	}
}
