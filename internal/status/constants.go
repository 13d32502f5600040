package status

import "time"

const (
	// historySize bounds the snapshot ring. About a minute of history at
	// the fastest polling rate.
	historySize = 300

	// Per-connection inbound rate limiting.
	rateLimitMessages = 20
	rateLimitWindow   = time.Second

	// textPreviewLimit truncates recognized text in responses.
	textPreviewLimit = 500

	// broadcastTimeout bounds one write to one client so a stalled
	// client cannot pin a goroutine forever.
	broadcastTimeout = 5 * time.Second
)
