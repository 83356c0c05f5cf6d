package main

import (
	"context"
	"fmt"

	"github.com/Olivedu13/poke/pokemigrate/internal/database"
	"github.com/Olivedu13/poke/pokemigrate/internal/logger"
	"github.com/Olivedu13/poke/pokemigrate/internal/migrate"
	"github.com/Olivedu13/poke/pokemigrate/internal/mysqlsrc"
	"github.com/Olivedu13/poke/pokemigrate/internal/remote"
	"github.com/Olivedu13/poke/pokemigrate/internal/secret"
)

// postgresConfig is the direct connection to the target database.
func (a *app) postgresConfig() (database.PostgresConfig, error) {
	pg := database.DefaultPostgresConfig()
	pg.Host = a.cfg.Target.Host
	pg.Port = a.cfg.Target.Port
	pg.User = a.cfg.Target.User
	pg.Database = a.cfg.Target.Database
	pg.SSLMode = a.cfg.Target.SSLMode

	password, err := secret.String(a.secrets, secret.PostgresPassword)
	if err != nil {
		return pg, fmt.Errorf("failed to read postgres password: %w", err)
	}
	pg.Password = password
	return pg, nil
}

// openTarget connects to PostgreSQL, through psql over SSH when the remote
// section is enabled. The returned func closes the connection.
func (a *app) openTarget(ctx context.Context) (migrate.Target, func() error, error) {
	if !a.cfg.Remote.Enabled {
		pg, err := a.postgresConfig()
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connecting to PostgreSQL", "target", pg.String())
		target, err := database.OpenTarget(pg)
		if err != nil {
			return nil, nil, err
		}
		return target, target.Close, nil
	}

	rc := a.cfg.Remote
	cfg := remote.Config{
		Host:                  rc.Host,
		Port:                  rc.Port,
		User:                  rc.User,
		KeyFile:               rc.KeyFile,
		KnownHostsFile:        rc.KnownHostsFile,
		InsecureIgnoreHostKey: rc.InsecureIgnoreHostKey,
		Timeout:               rc.Timeout,
	}
	var err error
	if cfg.KeyFile != "" {
		cfg.KeyPassphrase, err = secret.String(a.secrets, secret.SSHKeyPassphrase)
	} else {
		cfg.Password, err = secret.String(a.secrets, secret.SSHPassword)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read ssh credentials: %w", err)
	}

	client, err := remote.Dial(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	psql := &remote.Psql{
		Runner:    client,
		Database:  a.cfg.Target.Database,
		OSUser:    rc.OSUser,
		RemoteDir: rc.RemoteDir,
	}
	return psql, client.Close, nil
}

// openLedger opens the configured ledger. Both results are nil for the
// "none" driver.
func (a *app) openLedger() (*database.Database, error) {
	switch a.cfg.Ledger.Driver {
	case "none":
		logger.Warning("Import ledger disabled, an interrupted import will start over")
		return nil, nil
	case "postgres":
		pg, err := a.postgresConfig()
		if err != nil {
			return nil, err
		}
		return database.OpenWithConfig(database.Config{Driver: "postgres", Postgres: pg})
	default:
		return database.Open(a.cfg.Ledger.Path)
	}
}

// ledger adapts a possibly nil *database.Database to migrate.Ledger.
func ledger(db *database.Database) migrate.Ledger {
	if db == nil {
		return nil
	}
	return db
}

func (a *app) openMySQL(ctx context.Context) (*mysqlsrc.Source, error) {
	password, err := secret.String(a.secrets, secret.MySQLPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to read mysql password: %w", err)
	}
	mc := a.cfg.MySQL
	cfg := mysqlsrc.Config{
		Host:     mc.Host,
		Port:     mc.Port,
		User:     mc.User,
		Password: password,
		Database: mc.Database,
		Timeout:  mc.Timeout,
	}
	logger.Info("Connecting to MySQL", "source", cfg.String())
	return mysqlsrc.Open(ctx, cfg)
}
