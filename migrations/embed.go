// Package migrations embeds SQL migration files into the binary.
//
// Each dialect lives in its own directory with identical version numbers,
// so either database driver can be migrated without files on disk.
package migrations

import (
	"embed"

	"github.com/student-ally/ally-core/internal/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
}
