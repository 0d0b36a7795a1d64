package main

import (
	"github.com/spf13/cobra"

	"pkt.systems/fotodrop/client"
	"pkt.systems/fotodrop/internal/appconfig"
	"pkt.systems/fotodrop/internal/intent"
	"pkt.systems/fotodrop/internal/session"
	"pkt.systems/pslog"
)

// runtime bundles the stores and client every command needs.
type runtime struct {
	cfg     appconfig.Config
	session *session.Store
	intents *intent.Store
	api     *client.Client
}

func newRuntime(cmd *cobra.Command) (*runtime, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logger := pslog.Ctx(cmd.Context())
	sess, err := session.NewStoreWithLogger(cfg.StateDir, logger)
	if err != nil {
		return nil, err
	}
	intents, err := intent.NewStoreWithLogger(cfg.StateDir, logger)
	if err != nil {
		return nil, err
	}
	api := client.NewWithLogger(cfg.API.BaseURL, sess, logger)
	return &runtime{
		cfg:     cfg,
		session: sess,
		intents: intents,
		api:     api,
	}, nil
}
