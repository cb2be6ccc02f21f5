package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"shiptheory-client/internal/shiptheory"
)

type queryFlag url.Values

func (q queryFlag) String() string {
	return url.Values(q).Encode()
}

func (q queryFlag) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || key == "" {
		return fmt.Errorf("query %q must be key=value", value)
	}
	url.Values(q).Add(key, val)
	return nil
}

func main() {
	configPath := flag.String("config", "", "path to configuration file (json or yaml)")
	bodyPath := flag.String("body", "", "file holding the JSON request body, - for stdin")
	list := flag.Bool("list", false, "list available operations and exit")
	query := queryFlag{}
	flag.Var(query, "query", "query parameter key=value (repeatable)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <operation> [param=value ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *list {
		for _, e := range shiptheory.Endpoints() {
			fmt.Printf("%-28s %-6s %s\n", e.Name, e.Method, e.Path)
		}
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Create a basic logger for early errors
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("init logger: %v", err))
	}

	cfg, err := shiptheory.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	if cfg.Username != "" && cfg.Password == "" {
		cfg.Password, err = promptPassword(cfg.Username)
		if err != nil {
			logger.Fatal("read password", zap.Error(err))
		}
	}

	// Recreate logger with configured log level
	configured, err := shiptheory.NewLogger(cfg.LogLevel)
	if err != nil {
		logger.Fatal("init logger with config", zap.Error(err))
	}
	logger = configured

	code, err := run(logger, cfg, args, url.Values(query), *bodyPath)
	if err != nil {
		logger.Error("shiptheory call failed", zap.String("operation", args[0]), zap.Error(err))
	}
	_ = logger.Sync()
	os.Exit(code)
}

func run(logger *zap.Logger, cfg shiptheory.Config, args []string, query url.Values, bodyPath string) (int, error) {
	params, err := parseParams(args[1:])
	if err != nil {
		return 2, err
	}

	body, err := readBody(bodyPath)
	if err != nil {
		return 2, err
	}

	client, err := shiptheory.NewClientFromConfig(cfg, logger)
	if err != nil {
		return 1, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resp, err := client.Call(ctx, args[0], params, query, body)
	if err != nil {
		return 1, err
	}
	defer resp.Body.Close()

	fmt.Fprintln(os.Stderr, resp.Status)
	if _, err := io.Copy(os.Stdout, resp.Body); err != nil {
		return 1, fmt.Errorf("copy response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return 1, nil
	}
	return 0, nil
}

func parseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q must be name=value", arg)
		}
		params[key] = val
	}
	return params, nil
}

func readBody(path string) ([]byte, error) {
	switch path {
	case "":
		return nil, nil
	case "-":
		return io.ReadAll(os.Stdin)
	default:
		return os.ReadFile(path)
	}
}

func promptPassword(username string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password not configured and stdin is not a terminal")
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", username)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}
