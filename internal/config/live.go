package config

import "time"

const (
	envLiveEnabled     = "LIVE_ENABLED"
	envLiveURL         = "LIVE_URL"
	envLiveTCPAddr     = "LIVE_TCP_ADDR"
	envLiveTopicPrefix = "LIVE_TOPIC_PREFIX"
	envLiveHost        = "LIVE_HOST"
	envLiveLogin       = "LIVE_LOGIN"
	envLivePasscode    = "LIVE_PASSCODE"
	envLiveHeartBeat   = "LIVE_HEARTBEAT"
	envLiveRetries     = "LIVE_MAX_RECONNECTS"
	envLiveDelay       = "LIVE_RECONNECT_DELAY"
	envLiveExponential = "LIVE_RECONNECT_EXPONENTIAL"

	defaultLiveURL       = "ws://localhost:8080/ws"
	defaultLiveHeartBeat = 10 * time.Second
	defaultLiveRetries   = 5
	defaultLiveDelay     = 3 * time.Second
)

// LiveConfig controls the per-tournament STOMP subscriptions.
// TCPAddr, when set, replaces the websocket URL with a raw TCP connection.
type LiveConfig struct {
	Enabled        bool
	URL            string
	TCPAddr        string
	TopicPrefix    string
	Host           string
	Login          string
	Passcode       string
	HeartBeat      time.Duration
	MaxReconnects  int
	ReconnectDelay time.Duration
	Exponential    bool
}

func loadLive() LiveConfig {
	return LiveConfig{
		Enabled:        boolEnvOrDefault(envLiveEnabled, true),
		URL:            envOrDefault(envLiveURL, defaultLiveURL),
		TCPAddr:        envOrDefault(envLiveTCPAddr, ""),
		TopicPrefix:    envOrDefault(envLiveTopicPrefix, ""),
		Host:           envOrDefault(envLiveHost, ""),
		Login:          envOrDefault(envLiveLogin, ""),
		Passcode:       envOrDefault(envLivePasscode, ""),
		HeartBeat:      durationEnvOrDefault(envLiveHeartBeat, defaultLiveHeartBeat),
		MaxReconnects:  intEnvOrDefault(envLiveRetries, defaultLiveRetries),
		ReconnectDelay: durationEnvOrDefault(envLiveDelay, defaultLiveDelay),
		Exponential:    boolEnvOrDefault(envLiveExponential, false),
	}
}
