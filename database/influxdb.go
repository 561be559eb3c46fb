package database

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
)

// OpenInflux creates the analytics client and checks that the server is ready
func OpenInflux(ctx context.Context, url string, token string) (influxdb2.Client, error) {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().SetPrecision(time.Second))

	if _, err := client.Ready(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
