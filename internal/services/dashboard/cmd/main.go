package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/LeonardoBeccarini/serosis/internal/notify"
	"github.com/LeonardoBeccarini/serosis/internal/services/dashboard"
	"github.com/LeonardoBeccarini/serosis/internal/view"
)

var noteColors = map[notify.Severity]*color.Color{
	notify.Info:    color.New(color.FgBlue),
	notify.Success: color.New(color.FgGreen),
	notify.Error:   color.New(color.FgRed, color.Bold),
}

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()

	flag.StringVar(&cfg.Dashboard.BaseURL, "base-url", cfg.Dashboard.BaseURL, "backend origin")
	flag.StringVar(&cfg.Dashboard.Language, "lang", cfg.Dashboard.Language, "initial language (en, hi)")
	startView := flag.String("view", string(cfg.Dashboard.View), "start view (dashboard, analytics)")
	flag.Parse()
	cfg.Dashboard.View = dashboard.View(*startView)

	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	}
	// stdout è del rendering, i log vanno su stderr
	logrus.SetOutput(os.Stderr)
	log := logrus.WithField("component", "dashboard-main")

	reg := prometheus.NewRegistry()
	cfg.Dashboard.Registerer = reg
	if cfg.InfluxURL != "" {
		cfg.Dashboard.Archive = dashboard.NewInfluxArchive(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket,
			getenv("HOSTNAME", "serosis-dashboard"))
	}

	session, err := dashboard.NewSession(cfg.Dashboard)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := session.Start(ctx); err != nil {
		log.WithError(err).Fatal("session start failed")
	}

	var hs *http.Server
	if cfg.HTTPPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/healthz", dashboard.NewHealthHandler(session))
		mux.Handle("/readyz", dashboard.NewReadyHandler(session))
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		hs = &http.Server{
			Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.WithField("event", "listen").Infof("HTTP listening on :%d", cfg.HTTPPort)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Fatal("http server error")
			}
		}()
	}

	go render(ctx, session, cfg.RenderInterval)
	go commands(ctx, session)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down...")

	cancel()
	session.Close()
	if hs != nil {
		shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shCancel()
		_ = hs.Shutdown(shCtx)
	}
}

// render ridisegna il documento a intervalli fissi.
func render(ctx context.Context, s *dashboard.Session, every time.Duration) {
	tk := time.NewTicker(every)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			fmt.Print("\033[H\033[2J")
			_ = view.Fprint(os.Stdout, s.Document())
			if n, ok := s.Notifications().Current(); ok {
				c := noteColors[n.Severity]
				if c == nil {
					c = color.New(color.Reset)
				}
				_, _ = c.Printf("\n» %s\n", n.Message)
			}
			state := "offline"
			if s.Connected() {
				state = "live"
			}
			fmt.Printf("\n[%s] lang=%s view=%s  (lang <code> | analytics | dashboard | dismiss)\n", state, s.Language(), s.View())
		}
	}
}

// commands legge comandi da stdin: cambio lingua e cambio vista.
func commands(ctx context.Context, s *dashboard.Session) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "lang":
			if len(fields) == 2 {
				rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
				_ = s.ChangeLanguage(rctx, fields[1])
				cancel()
			}
		case "analytics":
			s.EnterAnalytics()
		case "dashboard":
			s.LeaveAnalytics()
		case "dismiss":
			if n, ok := s.Notifications().Current(); ok {
				s.Notifications().Dismiss(n.ID)
			}
		}
	}
}
