package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Domain    string          `json:"domain,omitempty" mapstructure:"domain"`
	Https     HTTPSConfig     `json:"https,omitempty" mapstructure:"https"`
	YouTube   YouTubeConfig   `json:"youtube,omitempty" mapstructure:"youtube"`
	Recording RecordingConfig `json:"recording,omitempty" mapstructure:"recording"`
	Analytics AnalyticsConfig `json:"analytics,omitempty" mapstructure:"analytics"`
}

type HTTPSConfig struct {
	ListenIp   string    `json:"listenIp,omitempty" mapstructure:"listenIp"`
	ListenPort uint16    `json:"listenPort,omitempty" mapstructure:"listenPort"`
	TLS        TLSConfig `json:"tls,omitempty" mapstructure:"tls"`
}

type TLSConfig struct {
	Cert string `json:"cert,omitempty" mapstructure:"cert"`
	Key  string `json:"key,omitempty" mapstructure:"key"`
}

type YouTubeConfig struct {
	// ClientId is the Google API application identifier. Leaving it empty
	// disables the broadcast integration: sessions then run key-entry only.
	ClientId       string        `json:"clientId,omitempty" mapstructure:"clientId"`
	APIBaseURL     string        `json:"apiBaseUrl,omitempty" mapstructure:"apiBaseUrl"`
	TokenInfoURL   string        `json:"tokenInfoUrl,omitempty" mapstructure:"tokenInfoUrl"`
	RequestTimeout time.Duration `json:"requestTimeout,omitempty" mapstructure:"requestTimeout"`
}

type RecordingConfig struct {
	// IngestURL is the RTMP endpoint the stream key is appended to.
	IngestURL string `json:"ingestUrl,omitempty" mapstructure:"ingestUrl"`
	// SourceURL is the conference mix output relayed to the ingest endpoint.
	SourceURL string `json:"sourceUrl,omitempty" mapstructure:"sourceUrl"`
}

type AnalyticsConfig struct {
	RedisAddr    string `json:"redisAddr,omitempty" mapstructure:"redisAddr"`
	RedisChannel string `json:"redisChannel,omitempty" mapstructure:"redisChannel"`
}

var (
	dirname, _    = filepath.Abs(filepath.Dir(os.Args[0]))
	DefaultConfig = Config{
		Domain: "localhost",
		Https: HTTPSConfig{
			ListenIp:   "0.0.0.0",
			ListenPort: 4443,
			TLS: TLSConfig{
				Cert: filepath.Join(dirname, "certs", "fullchain.pem"),
				Key:  filepath.Join(dirname, "certs", "privkey.key"),
			},
		},
		YouTube: YouTubeConfig{
			APIBaseURL:     "https://www.googleapis.com/youtube/v3",
			TokenInfoURL:   "https://www.googleapis.com/oauth2/v3/tokeninfo",
			RequestTimeout: 5 * time.Second,
		},
		Recording: RecordingConfig{
			IngestURL: "rtmp://a.rtmp.youtube.com/live2",
		},
		Analytics: AnalyticsConfig{
			RedisChannel: "analytics.livestream",
		},
	}
)

// LoadConfig reads configuration from the given file (when it exists) and
// from LIVESTREAM_* environment variables, over the defaults.
func LoadConfig(configFile string) (*Config, error) {
	config := DefaultConfig

	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetEnvPrefix("livestream")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Environment lookups only happen for keys viper knows about, so every
	// key is registered with its default up front.
	v.SetDefault("domain", DefaultConfig.Domain)
	v.SetDefault("https.listenIp", DefaultConfig.Https.ListenIp)
	v.SetDefault("https.listenPort", DefaultConfig.Https.ListenPort)
	v.SetDefault("https.tls.cert", DefaultConfig.Https.TLS.Cert)
	v.SetDefault("https.tls.key", DefaultConfig.Https.TLS.Key)
	v.SetDefault("youtube.clientId", DefaultConfig.YouTube.ClientId)
	v.SetDefault("youtube.apiBaseUrl", DefaultConfig.YouTube.APIBaseURL)
	v.SetDefault("youtube.tokenInfoUrl", DefaultConfig.YouTube.TokenInfoURL)
	v.SetDefault("youtube.requestTimeout", DefaultConfig.YouTube.RequestTimeout)
	v.SetDefault("recording.ingestUrl", DefaultConfig.Recording.IngestURL)
	v.SetDefault("recording.sourceUrl", DefaultConfig.Recording.SourceURL)
	v.SetDefault("analytics.redisAddr", DefaultConfig.Analytics.RedisAddr)
	v.SetDefault("analytics.redisChannel", DefaultConfig.Analytics.RedisChannel)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			return nil, err
		}
		// Config file missing: defaults plus environment.
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
