package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	carbonfootprint "github.com/superdango/carbon-footprint"
	"github.com/superdango/carbon-footprint/internal/demo"
	"github.com/superdango/carbon-footprint/internal/render"
	"github.com/superdango/carbon-footprint/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])

		flag.PrintDefaults()

		fmt.Fprint(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprint(os.Stderr, "  FOOTPRINT_LISTEN\n")
		fmt.Fprint(os.Stderr, "        default addr to listen to when -listen is not set\n")
	}

	flagElectricity := ""
	flagPetrol := ""
	flagShortFlights := ""
	flagLongFlights := ""
	flagFormat := ""
	flagListen := ""
	flagDemoEnabled := ""
	flagLogLevel := ""
	flagLogFormat := ""

	flag.StringVar(&flagElectricity, "electricity", "", "electricity consumption in kWh per month")
	flag.StringVar(&flagPetrol, "petrol", "", "petrol consumption in liters per week")
	flag.StringVar(&flagShortFlights, "flights.short", "", "short flight distance in km per year")
	flag.StringVar(&flagLongFlights, "flights.long", "", "long flight distance in km per year")
	flag.StringVar(&flagFormat, "format", "text", "output format (text, json, openmetrics)")
	flag.StringVar(&flagListen, "listen", os.Getenv("FOOTPRINT_LISTEN"), "addr to listen to, serves the footprint api instead of printing a report")
	flag.StringVar(&flagDemoEnabled, "demo.enabled", "false", "use a fictive demo household when no input is given")
	flag.StringVar(&flagLogLevel, "log.level", "info", "log severity (debug, info, warn, error)")
	flag.StringVar(&flagLogFormat, "log.format", "text", "log format (text, json)")

	flag.Parse()

	initLogging(flagLogLevel, flagLogFormat)

	demoEnabled := flagDemoEnabled == "true"

	if flagListen != "" {
		opts := []server.Option{}
		if demoEnabled {
			opts = append(opts, server.WithFallback(demo.NewHousehold(ctx)))
		}

		if err := server.New(opts...).Run(ctx, flagListen); err != nil {
			slog.Error("failed to run carbon footprint server", "err", err)
			os.Exit(1)
		}
		return
	}

	inputs := cliInputs(ctx, demoEnabled, time.Now(), flagElectricity, flagPetrol, flagShortFlights, flagLongFlights)

	if err := write(os.Stdout, flagFormat, inputs); err != nil {
		slog.Error("failed to write footprint", "format", flagFormat, "err", err)
		os.Exit(1)
	}
}

// cliInputs parses the raw flag values. The demo household replaces them only
// when every flag is left empty.
func cliInputs(ctx context.Context, demoEnabled bool, now time.Time, electricity, petrol, shortFlights, longFlights string) carbonfootprint.Inputs {
	if demoEnabled && electricity == "" && petrol == "" && shortFlights == "" && longFlights == "" {
		inputs := demo.NewHousehold(ctx).At(now, 0)
		slog.Info("no input given, using demo household", "inputs", inputs)
		return inputs
	}

	return carbonfootprint.ParseInputs(electricity, petrol, shortFlights, longFlights)
}

var errUnknownFormat = errors.New("unknown output format")

// write prints the footprint of inputs on w in the requested format.
func write(w io.Writer, format string, inputs carbonfootprint.Inputs) error {
	footprint := carbonfootprint.Compute(inputs)

	switch format {
	case "text":
		file, ok := w.(*os.File)
		return render.NewReport(w, render.Options{
			Color: ok && isatty.IsTerminal(file.Fd()),
		}).Render(footprint)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			Inputs    carbonfootprint.Inputs `json:"inputs"`
			Footprint server.FootprintResult `json:"footprint"`
		}{
			Inputs:    inputs.Sanitized(),
			Footprint: server.NewFootprintResult(footprint),
		})
	case "openmetrics":
		return carbonfootprint.WriteOpenMetrics(w, footprint, nil)
	}

	return fmt.Errorf("%w: %s", errUnknownFormat, format)
}

func initLogging(logLevel string, logFormat string) {
	switch logFormat {
	case "json":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slogLevel(logLevel),
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				switch a.Key {
				case slog.LevelKey:
					a.Key = "severity"
				case slog.MessageKey:
					a.Key = "message"
				}
				return a
			},
		})))
	default:
		slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:   slogLevel(logLevel),
			NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
		})))
	}
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	return slog.LevelInfo
}
