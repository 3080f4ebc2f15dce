// Command seed prepares a fresh database: it runs the migrations, installs
// the built-in roles and permissions and creates the first super admin.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/devbridge/dev-bridge-manager/internal/cache"
	"github.com/devbridge/dev-bridge-manager/internal/config"
	"github.com/devbridge/dev-bridge-manager/internal/database"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
	"github.com/devbridge/dev-bridge-manager/internal/repository"
	"github.com/devbridge/dev-bridge-manager/internal/services"
)

func main() {
	email := pflag.String("email", "", "email of the super admin")
	name := pflag.String("name", "Administrator", "display name of the super admin")
	password := pflag.String("password", "", "password of the super admin (or SEED_ADMIN_PASSWORD)")
	pflag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := config.Load()

	if *password == "" {
		*password = os.Getenv("SEED_ADMIN_PASSWORD")
	}

	if err := database.Connect(cfg, log); err != nil {
		fatal(log, "failed to connect to database", err)
	}
	if err := database.Migrate(log); err != nil {
		fatal(log, "failed to run migrations", err)
	}

	ctx := context.Background()
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)

	// Cached principals would keep stale grants; the server's cache expires on its own.
	roleService := services.NewRoleService(roleRepo, cache.NopPrincipalCache{})
	if err := roleService.EnsureDefaults(ctx); err != nil {
		fatal(log, "failed to seed roles", err)
	}
	log.Info("roles and permissions seeded")

	if *email == "" {
		return
	}

	users := services.NewUserService(userRepo, roleRepo, cache.NopPrincipalCache{})
	user, err := users.CreateUser(ctx, remote.UserInput{
		Name:     *name,
		Email:    *email,
		Password: *password,
		RoleName: permission.RoleSuperAdmin,
	})
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		existing, findErr := userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(*email)))
		if findErr != nil {
			fatal(log, "failed to load existing user", findErr)
		}
		role := permission.RoleSuperAdmin
		if user, err = users.UpdateUser(ctx, existing.ID, remote.UserPatch{RoleName: &role}); err != nil {
			fatal(log, "failed to promote existing user", err)
		}
		log.Info("existing user promoted", "user_id", user.ID, "email", user.Email)
	case err != nil:
		fatal(log, "failed to create super admin", err)
	default:
		log.Info("super admin created", "user_id", user.ID, "email", user.Email)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
