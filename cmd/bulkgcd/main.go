// Command bulkgcd reads a batch of RSA moduli, one hex string per line,
// and reports which ones share a prime factor with another modulus in the
// batch.
//
// Grounded on the teacher's cmd/compile/main.go: a flat main with no flag
// parsing library, an os.Args-driven mode switch, and log.Fatal on setup
// failure. This command keeps that shape (no cobra/pflag, an explicit
// "usage: bulkgcd <moduli-file>" check) and layers in the ambient logging
// the teacher's CLI lacked, using the already-indirect github.com/rs/zerolog
// dependency promoted to direct use here.
package main

import (
	"bufio"
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/indutny/bulk-gcd/internal/bgconfig"
	"github.com/indutny/bulk-gcd/pkg/bulkgcd"
)

func main() {
	logger := newLogger()

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: bulkgcd <moduli-file>")
		os.Exit(1)
	}

	moduli, err := readModuli(os.Args[1])
	if err != nil {
		logger.Fatal().Err(err).Msg("reading moduli")
	}
	logger.Info().Int("count", len(moduli)).Msg("loaded moduli")

	opts := bulkgcd.Options{
		CacheDir: os.Getenv("CACHE_DIR"),
		Config: bgconfig.Config{
			Progress: func(levelLen int) {
				logger.Debug().Int("level_len", levelLen).Msg("level computed")
			},
		},
	}
	if opts.CacheDir != "" {
		logger.Info().Str("dir", opts.CacheDir).Msg("checkpoint cache enabled")
	}

	results, err := bulkgcd.ComputeWithOptions(context.Background(), moduli, opts)
	if err != nil {
		logger.Fatal().Err(err).Msg("computing batch gcd")
	}

	vulnerable := 0
	for _, r := range results {
		if r.Vulnerable() {
			vulnerable++
			fmt.Printf("i=%d divisor=%x moduli=%x\n", r.Index, r.GCD, moduli[r.Index])
		}
	}
	logger.Info().Int("vulnerable", vulnerable).Int("total", len(results)).Msg("done")

	if vulnerable == 0 {
		logger.Info().Msg("no shared factors found")
	}
}

// readModuli parses one hex-encoded modulus per line from path, skipping
// blank lines.
func readModuli(path string) ([]*big.Int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var moduli []*big.Int
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		n, ok := new(big.Int).SetString(line, 16)
		if !ok {
			return nil, fmt.Errorf("%s:%d: invalid hex modulus %q", path, lineNo, line)
		}
		moduli = append(moduli, n)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return moduli, nil
}

// newLogger builds a console-friendly zerolog.Logger, verbose when
// BULKGCD_VERBOSE is set (core library code never logs; only this CLI
// does).
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if os.Getenv("BULKGCD_VERBOSE") != "" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
