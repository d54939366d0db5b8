package httpapi

// Config defines HTTP command boundary settings.
type Config struct {
	Addr string
	// History is the number of stream events kept for Last-Event-ID replay.
	History int
}
