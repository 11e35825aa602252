package main

import (
	"errors"
	"flag"
	"log"
	"os"
)

type Options struct {
	ServerURL    string
	ConferenceID string
	StreamKey    string
	AccessToken  string
	Email        string
	Cancel       bool
	VerifyCert   bool
}

func NewOptions() *Options {
	serverURL := "https://localhost:4443"

	if os.Getenv("SERVER_URL") != "" {
		serverURL = os.Getenv("SERVER_URL")
	}

	return &Options{
		ServerURL:    serverURL,
		ConferenceID: os.Getenv("CONFERENCE_ID"),
		StreamKey:    os.Getenv("STREAM_KEY"),
		AccessToken:  os.Getenv("GOOGLE_ACCESS_TOKEN"),
		Email:        os.Getenv("PROFILE_EMAIL"),
	}
}

func (options *Options) Verify() error {
	if len(options.ServerURL) == 0 {
		return errors.New("missing SERVER_URL")
	}
	if len(options.ConferenceID) == 0 {
		return errors.New("missing CONFERENCE_ID")
	}
	return nil
}

func streamcliFlagSet(opts *Options) *flag.FlagSet {
	flagSet := flag.NewFlagSet("streamcli", flag.ExitOnError)

	flagSet.StringVar(&opts.ServerURL, "server_url", opts.ServerURL, "the URL of the live-stream session API server")
	flagSet.StringVar(&opts.ServerURL, "s", opts.ServerURL, "the URL of the live-stream session API server")
	flagSet.StringVar(&opts.ConferenceID, "conference_id", opts.ConferenceID, "the id of the conference to stream")
	flagSet.StringVar(&opts.ConferenceID, "c", opts.ConferenceID, "the id of the conference to stream")
	flagSet.StringVar(&opts.StreamKey, "stream_key", opts.StreamKey, "the ingest stream key to submit")
	flagSet.StringVar(&opts.StreamKey, "k", opts.StreamKey, "the ingest stream key to submit")
	flagSet.BoolVar(&opts.Cancel, "cancel", opts.Cancel, "dismiss the dialog instead of submitting")
	flagSet.BoolVar(&opts.VerifyCert, "verify_cert", opts.VerifyCert, "whether to verify the tls certificate")

	return flagSet
}

func main() {
	opts := NewOptions()

	flagSet := streamcliFlagSet(opts)
	flagSet.Parse(os.Args[1:])

	if err := opts.Verify(); err != nil {
		panic(err)
	}

	client := NewClient(opts)

	if err := client.Run(); err != nil {
		log.Fatalf("error: %+v", err)
	}
}
