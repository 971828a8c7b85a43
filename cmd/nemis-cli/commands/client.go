package commands

import (
	"context"
	"time"

	"nemis-backend/lib/configutil"
	"nemis-backend/lib/restyutil"
	"nemis-backend/lib/scrapers/nemis"
	"nemis-backend/lib/scrapers/nemis/core"
	"nemis-backend/lib/serviceutil"
)

type Config struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func createClient() *nemis.Client {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*60)
	defer cancel()

	session, err := core.NewSession(ctx, core.Options{
		BaseUrl: cfg.BaseUrl,
		Output:  restyutil.NewFilesystemOutput(".dev/resty/nemis"),
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize portal session", err)
	}
	err = session.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		serviceutil.Fatal("failed to login to the portal", err)
	}

	client, err := nemis.NewClient(ctx, session, nemis.ClientOptions{})
	if err != nil {
		serviceutil.Fatal("failed to initialize client", err)
	}
	return client
}
