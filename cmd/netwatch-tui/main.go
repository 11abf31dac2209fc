package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/agent-racer/netwatch/internal/broadcast"
	"github.com/agent-racer/netwatch/internal/interceptor"
	"github.com/agent-racer/netwatch/internal/logging"
	"github.com/agent-racer/netwatch/internal/tui"
	"github.com/agent-racer/netwatch/internal/watch"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	wsURL := flag.String("url", "ws://127.0.0.1:8080/ws?mode=all", "WebSocket URL of the netwatch server")
	token := flag.String("token", "", "Auth token (if the server requires it)")
	logFile := flag.String("log", "", "Write debug logs to this file")
	flag.Parse()

	// The terminal belongs to Bubble Tea; logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if *logFile != "" {
		f, err := tea.LogToFile(*logFile, "netwatch-tui")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := logging.New(logOut, "text", slog.LevelDebug)

	// Observe this client's own link to the server.
	local := broadcast.New(broadcast.WithLogger(logger))
	defer local.Shutdown()
	adapter := interceptor.New(local)
	link, err := local.SubscribeChanges()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ws := watch.NewWSClient(*wsURL, *token, adapter, logger)
	defer ws.Close()
	httpClient := watch.NewHTTPClient(deriveHTTPBase(*wsURL), *token, adapter)

	m := tui.New(ws, httpClient, link)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// deriveHTTPBase converts ws://host:port/ws → http://host:port
func deriveHTTPBase(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "http://127.0.0.1:8080"
	}
	scheme := "http"
	if strings.HasPrefix(u.Scheme, "wss") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}
