// seed registra un tenant y emite un token de administrador para probar la API.
//
// Uso: go run ./cmd/seed -name "Panadería Ñandú" [-slug nandu] [-user admin-1] [-migrate]
// Imprime el id del tenant, su slug y un Bearer token firmado con JWT_SECRET.
//
// Con -tenant <id|slug> -status suspended|inactive|active cambia el estado de un tenant
// existente y, si REDIS_ADDR está configurado, borra sus entradas del cache de resolución.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pyme-stock-api/internal/application/tenancy"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/pyme-stock-api/internal/infrastructure/redis"
	"github.com/jhoicas/pyme-stock-api/pkg/config"
	"github.com/jhoicas/pyme-stock-api/pkg/jwt"
	"github.com/jhoicas/pyme-stock-api/pkg/logger"
)

func main() {
	name := flag.String("name", "", "nombre del tenant (requerido)")
	slug := flag.String("slug", "", "slug; por defecto se deriva del nombre")
	userID := flag.String("user", "seed-admin", "user_id del token emitido")
	migrate := flag.Bool("migrate", false, "aplicar el esquema antes de insertar")
	target := flag.String("tenant", "", "id o slug del tenant cuyo estado se cambia")
	status := flag.String("status", "", "nuevo estado (active, suspended, inactive); requiere -tenant")
	flag.Parse()

	if *status != "" || *target != "" {
		if *status == "" || *target == "" {
			fmt.Fprintln(os.Stderr, "-tenant y -status van juntos")
			os.Exit(2)
		}
		setStatus(*target, *status)
		return
	}

	if *name == "" {
		fmt.Fprintln(os.Stderr, "-name es requerido")
		os.Exit(2)
	}
	if *slug == "" {
		*slug = tenancy.Slugify(*name)
	}
	if *slug == "" {
		fmt.Fprintln(os.Stderr, "no se pudo derivar un slug válido; use -slug")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if *migrate || cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("aplicar esquema")
		}
	}

	now := time.Now().UTC()
	t := &entity.Tenant{
		ID:        uuid.New().String(),
		Name:      *name,
		Slug:      *slug,
		Status:    entity.TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := postgres.NewTenantRepository(pool).Create(ctx, t); err != nil {
		log.Fatal().Err(err).Str("slug", t.Slug).Msg("crear tenant")
	}

	token, err := jwt.Generate(cfg.JWT.Secret, *userID, t.ID, jwt.RoleAdmin, cfg.JWT.Issuer, cfg.JWT.Expiration)
	if err != nil {
		log.Fatal().Err(err).Msg("generar token")
	}

	fmt.Printf("tenant_id: %s\nslug:      %s\ntoken:     Bearer %s\n", t.ID, t.Slug, token)
}

// setStatus cambia el estado vía el resolver para que el cache quede invalidado.
func setStatus(target, status string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	var cache tenancy.TenantCache
	if cfg.Redis.Enabled() {
		client, err := infraredis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible; el cache no se podría invalidar")
		}
		defer client.Close()
		cache = infraredis.NewTenantCache(client)
	}

	resolver := tenancy.NewResolver(postgres.NewTenantRepository(pool), cache, cfg.Tenant.BaseDomain,
		cfg.Tenant.CacheTTL(), log.Component("tenancy"))
	t, err := resolver.SetStatus(ctx, target, status)
	if err != nil {
		log.Fatal().Err(err).Str("tenant", target).Msg("cambiar estado del tenant")
	}
	fmt.Printf("tenant_id: %s\nslug:      %s\nstatus:    %s\n", t.ID, t.Slug, t.Status)
}
