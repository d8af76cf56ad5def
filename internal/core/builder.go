package core

import (
	"gomoss/config"
	"gomoss/internal/metrics"
	"gomoss/internal/report"
	"gomoss/internal/transport"
	"gomoss/moss"
	"gomoss/tunnel"
	"gomoss/util"
)

// Build constructs the appropriate Mode from the given configuration.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	if cfg.ListLanguages {
		return &LanguagesMode{}, nil
	}
	return buildSubmit(cfg, logger)
}

// ── mode builders ────────────────────────────────────────────────────

func buildSubmit(cfg *config.Config, logger *util.Logger) (Mode, error) {
	// Through a tunnel the gateway resolves the name, but -n still
	// means the caller promised a literal address.
	if _, err := util.ResolveAddr(cfg.Host, cfg.Port, cfg.NoDNS); err != nil {
		return nil, err
	}

	policy := moss.UploadEmpty
	if cfg.StrictFiles {
		policy = moss.AbortOnReadError
	}

	m := &SubmitMode{
		Config:     cfg,
		Dialer:     buildDialer(cfg, logger),
		ReadPolicy: policy,
		Metrics:    metrics.New(),
		Logger:     logger,
	}
	if cfg.OutputPath != "" {
		m.Fetcher = report.NewFetcher(cfg.ReportTimeout, logger)
	}
	return m, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the right transport.Dialer for the given config.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	if cfg.TunnelEnabled {
		return transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.Timeout,
		}, logger)
	}

	return &transport.TCPDialer{
		Timeout: cfg.Timeout,
	}
}
