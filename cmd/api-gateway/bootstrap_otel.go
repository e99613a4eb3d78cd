package main

import (
	"context"

	config "github.com/NordCoder/Restora/internal/config/api-gateway"
	"github.com/NordCoder/Restora/internal/obs"
)

func initOTel(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	closer, err := obs.SetupOTel(ctx, &cfg.OTEL)
	if err != nil {
		return nil, err
	}
	return closer.Shutdown, nil
}
