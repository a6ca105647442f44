// Command openlock is the production kiosk agent: it loads an exam
// configuration, engages the lockdown engine, and hands the derived SEB
// key material to whatever out-of-core rendering engine hosts the
// confined web view.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/crypto/ssh/terminal"

	"github.com/openlock/agent/internal/audit"
	"github.com/openlock/agent/internal/browser"
	"github.com/openlock/agent/internal/config"
	"github.com/openlock/agent/internal/lockdown"
	"github.com/openlock/agent/internal/logger"
	"github.com/openlock/agent/internal/model"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to .openlock JSON or .seb binary configuration")
	startURLFlag := flag.String("url", "", "override the exam start URL")
	noLockdown := flag.Bool("no-lockdown", false, "development mode: load configuration but skip engaging lockdown")
	noVMCheck := flag.Bool("no-vm-check", false, "disable VM detection in the integrity pre-check")
	flag.Parse()

	if err := config.LoadConfig(""); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load agent configuration: %v\n", err)
		return 1
	}

	appCfg := config.Get()
	if err := logger.Setup(logger.Options{
		Level:      appCfg.Agent.LogLevel,
		FilePath:   appCfg.Agent.LogFile,
		MaxSize:    appCfg.Agent.LogMaxSize,
		MaxBackups: appCfg.Agent.LogMaxBackups,
		MaxAge:     appCfg.Agent.LogMaxAge,
		Compress:   appCfg.Agent.LogCompress,
		Stdout:     appCfg.Agent.LogStdout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	if *configPath == "" {
		logger.Error("no --config given")
		return 1
	}

	examConfig, err := loadExamConfigWithPasswordPrompt(*configPath)
	if err != nil {
		logger.Error("failed to load exam configuration", "error", err)
		return 1
	}

	if startURL := resolveStartURLOverride(*startURLFlag, flag.Args()); startURL != "" {
		examConfig.StartURL = startURL
	}
	if *noVMCheck {
		examConfig.Security.DetectVM = false
	}

	trail, err := audit.NewTrail(audit.Options{
		DataDir:         appCfg.Agent.DataDir,
		FileName:        appCfg.Database.FileName,
		LogLevel:        appCfg.Database.LogLevel,
		MaxOpenConns:    appCfg.Database.MaxOpenConns,
		MaxIdleConns:    appCfg.Database.MaxIdleConns,
		ConnMaxLifetime: appCfg.Database.ConnMaxLifetime,
	}, appCfg.Security.Audit.MemoryLimit, appCfg.Security.Audit.Enable, examConfig.ExamName, examConfig.StartURL)
	if err != nil {
		logger.Error("failed to initialize audit trail", "error", err)
		return 1
	}
	defer trail.Close()

	engine := lockdown.NewEngine()
	engine.AddObserver(trail)

	if err := engine.Initialize(examConfig); err != nil {
		logger.Error("engine initialization failed", "error", err)
		return 1
	}

	interceptor, err := browser.NewInterceptor(*examConfig)
	if err != nil {
		logger.Error("failed to derive SEB key material", "error", err)
		return 1
	}
	logger.Info("exam configuration loaded",
		"exam", examConfig.ExamName,
		"start_url", examConfig.StartURL,
		"seb_mode", examConfig.SebMode,
		"lms", interceptor.LMSType().String(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if *noLockdown {
		logger.Warn("--no-lockdown set: skipping engage, running in development mode")
	} else {
		if err := engine.EngageLockdown(ctx); err != nil {
			logger.Error("failed to engage lockdown", "error", err)
			return 1
		}
		if err := engine.StartExam(); err != nil {
			logger.Error("failed to start exam", "error", err)
			return 1
		}
		logger.Info("lockdown engaged, exam active")
	}

	<-sigChan
	logger.Info("shutdown signal received")

	if engine.State() == model.StateLocked || engine.State() == model.StateExamActive {
		if err := engine.ReleaseLockdown(ctx, examConfig.ExitPassword); err != nil {
			logger.Error("release lockdown failed", "error", err)
			return 1
		}
	}

	logger.Info("openlock agent exiting normally")
	return 0
}

// loadExamConfigWithPasswordPrompt loads the exam configuration, prompting
// for a password on stdin only if the file turns out to be a
// password-protected .seb payload and none was piped in via
// OPENLOCK_SEB_PASSWORD.
func loadExamConfigWithPasswordPrompt(path string) (*model.ExamConfiguration, error) {
	password := os.Getenv("OPENLOCK_SEB_PASSWORD")

	cfg, err := config.LoadExamConfig(path, password)
	if err == nil {
		return cfg, nil
	}

	structured, ok := err.(*model.StructuredError)
	if !ok || structured.Kind != model.ErrSebDecryptPasswordRequired || password != "" {
		return nil, err
	}
	if !terminal.IsTerminal(int(os.Stdin.Fd())) {
		return nil, err
	}

	fmt.Fprint(os.Stderr, "SEB configuration password: ")
	pwBytes, readErr := terminal.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if readErr != nil {
		return nil, fmt.Errorf("read password: %w", readErr)
	}

	return config.LoadExamConfig(path, string(pwBytes))
}

// resolveStartURLOverride applies, in priority order, the --url flag and
// then a single positional seb://|sebs:// argument, rewriting its scheme
// to https:// per the command-line contract. Returns "" if neither is
// present, leaving the configuration's own start URL untouched.
func resolveStartURLOverride(urlFlag string, positional []string) string {
	if urlFlag != "" {
		return urlFlag
	}
	if len(positional) != 1 {
		return ""
	}

	arg := positional[0]
	switch {
	case strings.HasPrefix(arg, "sebs://"):
		return "https://" + strings.TrimPrefix(arg, "sebs://")
	case strings.HasPrefix(arg, "seb://"):
		return "https://" + strings.TrimPrefix(arg, "seb://")
	default:
		return ""
	}
}
