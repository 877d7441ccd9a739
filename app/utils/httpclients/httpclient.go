package httpclients

import (
	"time"

	"resty.dev/v3"
	"shelfsync.io/shelfsync/app/utils/logger"
)

// NewClient builds the shared resty client used by all remote calls.
func NewClient(name string) *resty.Client {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", "shelfsync").
		SetHeader("Content-Type", "application/json")

	client.AddResponseMiddleware(func(c *resty.Client, res *resty.Response) error {
		logger.GetLogger().
			WithField("client", name).
			WithField("method", res.Request.Method).
			WithField("url", res.Request.URL).
			WithField("status", res.StatusCode()).
			WithField("latency", res.Duration().String()).
			Debug("remote call")
		return nil
	})
	return client
}
