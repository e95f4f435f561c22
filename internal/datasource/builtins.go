// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package datasource

import (
	"github.com/oceanrun/oceanrun/internal/config"
	"github.com/oceanrun/oceanrun/internal/datasource/dbstore"
	"github.com/oceanrun/oceanrun/internal/datasource/localfs"
	"github.com/oceanrun/oceanrun/internal/docparse"
	"github.com/oceanrun/oceanrun/internal/registry"
)

// RegisterBuiltins registers oceanrun's two built-in run-history data source
// variants.
func RegisterBuiltins(r *registry.Registry) error {
	if err := r.Register(registry.KindDataSource, "localfs", Factory(newLocalfsFromSubtree)); err != nil {
		return err
	}
	return r.Register(registry.KindDataSource, "gorm", Factory(newGormFromSubtree))
}

func newLocalfsFromSubtree(subtree map[string]any) (DataSource, error) {
	root, _ := docparse.AsString(subtree["root"])
	return localfs.New(root), nil
}

func newGormFromSubtree(subtree map[string]any) (DataSource, error) {
	driver, _ := docparse.AsString(subtree["driver"])
	database, _ := docparse.AsString(subtree["database"])
	host, _ := docparse.AsString(subtree["host"])
	username, _ := docparse.AsString(subtree["username"])
	password, _ := docparse.AsString(subtree["password"])
	sslMode, _ := docparse.AsString(subtree["ssl_mode"])
	port := intField(subtree["port"])

	return dbstore.New(config.SQLDatasourceConfig{
		Driver:   driver,
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		Database: database,
		SSLMode:  sslMode,
	})
}

func intField(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
