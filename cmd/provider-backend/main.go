// Gmail provider backend owns preferences, the watch list and OAuth tokens, and
// serves them to the provider settings through Model Context Protocol.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-provider/internal/auth"
	"github.com/hal9000y/gmail-provider/internal/backend"
	"github.com/hal9000y/gmail-provider/internal/config"
	"github.com/hal9000y/gmail-provider/internal/gservice"
	"github.com/hal9000y/gmail-provider/internal/store"
)

func main() {
	httpAddr := flag.String("http-addr", "localhost:8765", "HTTP SERVER listen addr")
	dbPathParam := flag.String("db", "", "Path to the SQLite database, overrides PROVIDER_DB")
	oauthURLParam := flag.String("oauth-url", "", "OAuth URL")
	envFileParam := flag.String("env-file", "", "Path to env file")
	enableStdio := flag.Bool("stdio", false, "Enable stdio transport for MCP (disables stdout logging)")
	logFile := flag.String("log-file", "", "Path to log file (only used with stdio transport, otherwise logs to stdout)")

	flag.Parse()

	closeLogs := setupLogger(*enableStdio, *logFile)
	defer closeLogs()

	cfg := mustLoadConfig(*envFileParam)
	if *dbPathParam != "" {
		cfg.DBPath = *dbPathParam
	}

	ln := mustListen(*httpAddr)
	oauthCfg := cfg.OAuth(redirectURL(ln.Addr().String(), *oauthURLParam))

	db := mustOpenStore(cfg.DBPath)
	defer func() {
		if err := db.Close(); err != nil {
			log.Println(fmt.Errorf("db.Close failed: %w", err))
		}
	}()

	flow := auth.NewFlow(oauthCfg, db, gservice.NewProfile())
	b := backend.New(db, flow, backend.Options{OpenURL: openBrowser})

	mux := http.NewServeMux()
	mux.Handle("/oauth", auth.NewHTTPHandler(flow, b.Granted))

	providerT := backend.NewServer(b)
	mcpHTTP := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server { return providerT }, nil)

	mux.Handle("/mcp", mcpHTTP)

	srv := &http.Server{
		Handler: mux,
	}

	shutdown := make(chan os.Signal, 1)

	signal.Notify(shutdown, syscall.SIGTERM, syscall.SIGINT)

	stopHTTP, errHTTPCh := serveHTTP(srv, ln, cfg.ShutdownTimeout)
	defer stopHTTP()

	var errStdioCh <-chan error
	if *enableStdio {
		var stopStdio func()
		stopStdio, errStdioCh = serveStdio(providerT)
		defer stopStdio()
	}

	select {
	case err := <-errHTTPCh:
		log.Println("Error http server", err)
	case err := <-errStdioCh:
		log.Println("Error stdio", err)
	case <-shutdown:
		log.Println("Shutdown signal received")
	}
}

func serveStdio(srv *mcp.Server) (func(), <-chan error) {
	errStdioCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(errStdioCh)
		log.Println("Starting stdio transport")

		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			err = fmt.Errorf("srv.Run failed: %w", err)
			errStdioCh <- err
		}
	}()

	return func() {
		cancel()

		<-errStdioCh
		log.Println("Stdio transport stopped")
	}, errStdioCh
}

func serveHTTP(srv *http.Server, ln net.Listener, shutdownTimeout time.Duration) (func(), <-chan error) {
	errHTTPCh := make(chan error, 1)
	go func() {
		defer close(errHTTPCh)

		log.Println("Starting http server on", ln.Addr().String())

		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("srv.Serve failed: %w", err)
			log.Println(err)
			errHTTPCh <- err
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Println(fmt.Errorf("srv.Shutdown failed: %w", err))
		}

		<-errHTTPCh
		log.Println("HTTP server stopped")
	}, errHTTPCh
}

func mustListen(httpAddr string) net.Listener {
	if httpAddr == "" {
		panic("-http-addr must be provided")
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		panic(fmt.Errorf("net.Listen failed: %w", err))
	}

	return ln
}

func mustLoadConfig(envFile string) config.Backend {
	cfg, err := config.LoadBackend(envFile)
	if err != nil {
		panic(fmt.Errorf("config.LoadBackend failed: %w", err))
	}

	return cfg
}

// mustOpenStore opens the database and stores the default watch list on first start.
func mustOpenStore(path string) *store.DB {
	db, err := store.Open(path)
	if err != nil {
		panic(fmt.Errorf("store.Open failed: %w", err))
	}

	seeded, err := db.SeedWatchList(context.Background(), backend.DefaultWatchList())
	if err != nil {
		panic(fmt.Errorf("db.SeedWatchList failed: %w", err))
	}
	if seeded {
		log.Println("Default watch list stored in", db.Path())
	}

	return db
}

// redirectURL is the OAuth callback served by this process unless overridden.
func redirectURL(lnAddr, override string) string {
	if override != "" {
		return override
	}
	return fmt.Sprintf("http://%s/oauth", lnAddr)
}

// setupLogger keeps stdout free for the MCP stdio transport.
func setupLogger(stdio bool, logFile string) func() {
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			panic(fmt.Errorf("failed to open log file: %w", err))
		}
		log.SetOutput(f)

		return func() {
			if err := f.Close(); err != nil {
				log.Println(fmt.Errorf("f.Close failed: %w", err))
			}
		}
	}

	if stdio {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stdout)
	}

	return func() {}
}

func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}

	if err != nil {
		log.Printf("Could not open browser automatically: %v; please copy and open link in the browser: %s\n", err, url)
	}
}
