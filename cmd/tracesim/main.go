// Command tracesim replays a synthetic workload against a chosen eviction
// policy and writes per-interval miss-ratio statistics as CSV (optionally
// gzip-compressed). Configuration is layered: defaults, then a YAML config
// file, then TRACESIM_* environment variables, then flags.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/IvanBrykalov/tracesim/admission/adaptsize"
	"github.com/IvanBrykalov/tracesim/admission/threshold"
	pmet "github.com/IvanBrykalov/tracesim/metrics/prom"
	_ "github.com/IvanBrykalov/tracesim/policy/all"
	"github.com/IvanBrykalov/tracesim/replay"
	"github.com/IvanBrykalov/tracesim/sim"
	"github.com/IvanBrykalov/tracesim/trace"
)

// Config is the CLI configuration. Koanf keys double as flag names.
type Config struct {
	Policy       string `koanf:"policy" yaml:"policy"`
	PolicyParams string `koanf:"params" yaml:"params"`
	Capacity     int64  `koanf:"capacity" yaml:"capacity"`

	Admission       string `koanf:"admission" yaml:"admission"`
	AdmissionParams string `koanf:"admission-params" yaml:"admission-params"`

	Requests int64   `koanf:"requests" yaml:"requests"`
	Keys     uint64  `koanf:"keys" yaml:"keys"`
	ZipfS    float64 `koanf:"zipf-s" yaml:"zipf-s"`
	Seed     int64   `koanf:"seed" yaml:"seed"`

	SmallSize  int64  `koanf:"small-size" yaml:"small-size"`
	LargeSize  int64  `koanf:"large-size" yaml:"large-size"`
	LargeEvery uint64 `koanf:"large-every" yaml:"large-every"`

	Interval    uint64 `koanf:"interval" yaml:"interval"`
	Out         string `koanf:"out" yaml:"out"`
	MetricsAddr string `koanf:"metrics-addr" yaml:"metrics-addr"`
	Verbose     bool   `koanf:"verbose" yaml:"verbose"`
}

func defaults() Config {
	return Config{
		Policy:     "lru",
		Capacity:   1 << 30,
		Requests:   1_000_000,
		Keys:       1_000_000,
		ZipfS:      trace.DefaultZipfS,
		Seed:       1,
		SmallSize:  1 << 10,
		LargeEvery: 10,
		Interval:   100_000,
		Out:        "-",
	}
}

func main() {
	if err := run(); err != nil {
		log.SetFlags(0)
		log.Fatalf("tracesim: %v", err)
	}
}

func run() error {
	flags := pflag.NewFlagSet("tracesim", pflag.ExitOnError)
	cfgPath := flags.String("config", "", "YAML config file")
	printCfg := flags.Bool("print-config", false, "print the effective config as YAML and exit")
	flags.String("policy", "lru", "eviction policy ("+strings.Join(sim.Policies(), ", ")+")")
	flags.String("params", "", "policy parameters, k1=v1,k2=v2")
	flags.Int64("capacity", 1<<30, "cache capacity in bytes")
	flags.String("admission", "", "admission controller: adaptsize | threshold | none")
	flags.String("admission-params", "", "admission parameters, k1=v1,k2=v2")
	flags.Int64("requests", 1_000_000, "number of synthetic requests")
	flags.Uint64("keys", 1_000_000, "keyspace size")
	flags.Float64("zipf-s", trace.DefaultZipfS, "Zipf skew (s > 1)")
	flags.Int64("seed", 1, "random seed")
	flags.Int64("small-size", 1<<10, "object size in bytes")
	flags.Int64("large-size", 0, "large object size (0 = uniform sizes)")
	flags.Uint64("large-every", 10, "one in N keys is large")
	flags.Uint64("interval", 100_000, "reporting interval in requests (0 = final only)")
	flags.String("out", "-", "CSV output: path, path.gz, or - for stdout")
	flags.String("metrics-addr", "", "serve Prometheus metrics at addr (empty = disabled)")
	flags.Bool("verbose", false, "debug logging")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return err
	}
	if *cfgPath != "" {
		if err := k.Load(file.Provider(*cfgPath), yaml.Parser()); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
	}
	if err := k.Load(env.Provider("TRACESIM_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "TRACESIM_")), "_", "-")
	}), nil); err != nil {
		return err
	}
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return err
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return err
	}

	if *printCfg {
		out, err := yamlv3.Marshal(cfg)
		if err != nil {
			return err
		}
		os.Stdout.Write(out)
		return nil
	}

	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	var adm sim.Admissioner
	switch cfg.Admission {
	case "", "none":
	case "adaptsize":
		a, err := adaptsize.New(cfg.Capacity, cfg.AdmissionParams,
			adaptsize.WithSeed(cfg.Seed), adaptsize.WithLogger(logger))
		if err != nil {
			return err
		}
		adm = a
	case "threshold":
		a, err := threshold.New(cfg.AdmissionParams)
		if err != nil {
			return err
		}
		adm = a
	default:
		return fmt.Errorf("unknown admission controller %q", cfg.Admission)
	}

	opt := sim.Options{
		Capacity:  cfg.Capacity,
		Admission: adm,
		Logger:    logger,
		RandSeed:  cfg.Seed,
	}
	if cfg.MetricsAddr != "" {
		opt.Metrics = pmet.New(nil, "tracesim", cfg.Policy, nil)
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
			logger.Err(http.ListenAndServe(cfg.MetricsAddr, nil)).Msg("metrics server stopped")
		}()
	}
	c, err := sim.New(cfg.Policy, opt, cfg.PolicyParams)
	if err != nil {
		return err
	}

	var sizeOf func(uint64) int64
	if cfg.LargeSize > 0 {
		sizeOf = trace.MixedSizes(cfg.SmallSize, cfg.LargeSize, cfg.LargeEvery)
	} else {
		small := cfg.SmallSize
		sizeOf = func(uint64) int64 { return small }
	}
	gen := &trace.Synthetic{
		Count:  cfg.Requests,
		Keys:   cfg.Keys,
		ZipfS:  cfg.ZipfS,
		Seed:   cfg.Seed,
		SizeOf: sizeOf,
	}

	w, closeOut, err := openOut(cfg.Out)
	if err != nil {
		return err
	}
	defer closeOut()
	csvw := csv.NewWriter(w)
	if err := csvw.Write([]string{"requests", "misses", "miss_bytes", "miss_ratio", "byte_miss_ratio"}); err != nil {
		return err
	}

	r := &replay.Replayer{
		Cache:    c,
		Reader:   gen,
		Interval: cfg.Interval,
		OnInterval: func(s replay.Stats) {
			csvw.Write([]string{
				strconv.FormatUint(s.Requests, 10),
				strconv.FormatUint(s.Misses, 10),
				strconv.FormatUint(s.MissBytes, 10),
				strconv.FormatFloat(s.MissRatio(), 'f', 6, 64),
				strconv.FormatFloat(s.ByteMissRatio(), 'f', 6, 64),
			})
		},
	}
	final, err := r.Run(context.Background())
	if err != nil {
		return err
	}
	csvw.Flush()
	if err := csvw.Error(); err != nil {
		return err
	}
	logger.Info().
		Str("policy", cfg.Policy).
		Uint64("requests", final.Requests).
		Float64("miss_ratio", final.MissRatio()).
		Float64("byte_miss_ratio", final.ByteMissRatio()).
		Msg("replay finished")
	return nil
}

// openOut resolves the output target: stdout, a plain file, or a
// gzip-compressed file when the path ends in .gz.
func openOut(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(f)
		return gz, func() error {
			if err := gz.Close(); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		}, nil
	}
	return f, f.Close, nil
}
