package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/option"

	"github.com/erazemk/igralnica/internal/api"
	"github.com/erazemk/igralnica/internal/auth"
	"github.com/erazemk/igralnica/internal/config"
	"github.com/erazemk/igralnica/internal/db"
	"github.com/erazemk/igralnica/internal/docstore"
	"github.com/erazemk/igralnica/internal/logging"
	"github.com/erazemk/igralnica/internal/model"
	"github.com/erazemk/igralnica/internal/store"
	"github.com/erazemk/igralnica/internal/telemetry"
)

const usage = `Usage: igralnica <command> [flags]

Commands:
  init    create a local database with an admin account
  serve   run the HTTP server

Run "igralnica <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "-h", "-help", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(1)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	dbPath := fs.String("db", config.Default().DBPath, "SQLite database path")
	email := fs.String("email", "admin@igralnica.local", "admin account email")
	name := fs.String("name", "Admin", "admin display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*dbPath); err == nil {
		return fmt.Errorf("database %s already exists", *dbPath)
	}

	database, err := db.Open(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		os.Remove(*dbPath)
		return fmt.Errorf("ensuring schema: %w", err)
	}

	ds := docstore.NewSQLite(database)
	defer ds.Close()

	password, err := createAdmin(context.Background(), ds, *email, *name)
	if err != nil {
		os.Remove(*dbPath)
		return err
	}

	printInitResult(*dbPath, *email, password)
	return nil
}

// createAdmin stores an admin profile with a local password and returns
// the generated password.
func createAdmin(ctx context.Context, ds docstore.Store, email, name string) (string, error) {
	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	admin, err := store.CreateUser(ctx, ds, model.User{
		Email:       email,
		DisplayName: name,
		Role:        model.RoleAdmin,
		IsActive:    true,
	})
	if err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}
	if err := store.SetPassword(ctx, ds, admin, string(hash)); err != nil {
		return "", err
	}
	return password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, email, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Email:    %s\n", email)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}

func runServe(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "document store: sqlite or firestore")
	fs.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, undo, err := logging.Install(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer undo()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	ds, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer ds.Close()
	ds = docstore.Traced(ds)

	verifier, jwtSecret, err := buildVerifier(ctx, cfg, ds)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr: cfg.Addr,
		Handler: api.NewRouter(ds, verifier, api.Options{
			JWTSecret:   jwtSecret,
			RequestRate: cfg.RequestRate,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No write timeout: event streams stay open.
		IdleTimeout: 120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		zap.L().Info("server started", zap.String("addr", cfg.Addr), zap.String("backend", cfg.Backend))
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		zap.L().Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("server forced to shutdown", zap.Error(err))
		}
	}

	zap.L().Info("server stopped, closing store")
	return nil
}

// openStore opens the configured document store. A missing SQLite database
// is created together with an admin account, whose password is printed once.
func openStore(ctx context.Context, cfg config.Config) (docstore.Store, error) {
	switch cfg.Backend {
	case config.BackendFirestore:
		var opts []option.ClientOption
		if cfg.FirebaseCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentials))
		}
		ds, err := docstore.NewFirestore(ctx, cfg.FirebaseProjectID, opts...)
		if err != nil {
			return nil, err
		}
		zap.L().Info("firestore ready", zap.String("project", cfg.FirebaseProjectID))
		return ds, nil

	default:
		_, statErr := os.Stat(cfg.DBPath)
		fresh := os.IsNotExist(statErr)

		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(database); err != nil {
			database.Close()
			return nil, fmt.Errorf("ensuring schema: %w", err)
		}
		ds := &sqliteStore{SQLite: docstore.NewSQLite(database), close: database.Close}

		if fresh {
			password, err := createAdmin(ctx, ds, "admin@igralnica.local", "Admin")
			if err != nil {
				ds.Close()
				return nil, err
			}
			printInitResult(cfg.DBPath, "admin@igralnica.local", password)
			fmt.Println()
		}
		zap.L().Info("database ready", zap.String("path", cfg.DBPath))
		return ds, nil
	}
}

// sqliteStore also closes the database when the store is closed.
type sqliteStore struct {
	*docstore.SQLite
	close func() error
}

func (s *sqliteStore) Close() error {
	err := s.SQLite.Close()
	if cerr := s.close(); err == nil {
		err = cerr
	}
	return err
}

// buildVerifier accepts local tokens on every backend and Firebase ID tokens
// when a Firebase project is configured. It returns the local signing secret.
func buildVerifier(ctx context.Context, cfg config.Config, ds docstore.Store) (auth.Verifier, string, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		var err error
		if secret, err = store.GetJWTSecret(ctx, ds); err != nil {
			return nil, "", fmt.Errorf("loading jwt secret: %w", err)
		}
	}
	chain := auth.Chain{auth.JWTVerifier{Secret: secret}}

	if cfg.FirebaseProjectID != "" {
		var opts []option.ClientOption
		if cfg.FirebaseCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentials))
		}
		fv, err := auth.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, opts...)
		if err != nil {
			return nil, "", err
		}
		chain = append(chain, fv)
	}
	return chain, secret, nil
}
