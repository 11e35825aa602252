package main

// English labels for the dialog. The dialog layer only carries opaque keys;
// resolving them here keeps the error codes stable on the wire.
var labels = map[string]string{
	"liveStreaming.title":                        "Start live stream",
	"liveStreaming.errors.googleApiError":        "Failed to load the Google API client",
	"liveStreaming.errors.broadcastsUnavailable": "Live broadcasts are not available",
}

func translate(key string) string {
	if label, ok := labels[key]; ok {
		return label
	}
	return key
}
