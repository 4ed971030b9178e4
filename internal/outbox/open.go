/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package outbox

import (
	"context"
	"fmt"
	"strings"
)

// Sink kinds accepted by Open.
const (
	KindDir      = "dir"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// Config selects and configures a sink.
type Config struct {
	Kind        string
	Dir         string
	Sheet       bool
	SQLitePath  string
	PostgresDSN string
}

// Open returns the sink named by cfg.Kind. token is the stored database
// credential, used only by the Postgres sink. An empty kind means dir.
func Open(ctx context.Context, cfg Config, token string) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", KindDir:
		return NewDirSink(cfg.Dir, cfg.Sheet)
	case KindSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case KindPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN, token)
	default:
		return nil, fmt.Errorf("unknown outbox kind %q", cfg.Kind)
	}
}
