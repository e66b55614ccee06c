// Command ctxcrypt runs the engine self-test and seals or opens files.
//
// Usage:
//
//	ctxcrypt -genconfig > ctxcrypt.yaml
//	ctxcrypt -config ctxcrypt.yaml -selftest
//	ctxcrypt -genkey
//	ctxcrypt -seal -key <hex> -iv <hex> -in plain.bin -out sealed.cxs
//	ctxcrypt -open -key <hex> -iv <hex> -in sealed.cxs -out plain.bin
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/TheusHen/ctxcrypt/ctxcrypt"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/aead"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/call"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/config"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/logging"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/sealed"
	"github.com/TheusHen/ctxcrypt/ctxcrypt/selftest"
)

var (
	configPath = flag.String("config", "", "path to a YAML configuration file")
	genConfig  = flag.Bool("genconfig", false, "print the default configuration and exit")
	genKey     = flag.Bool("genkey", false, "print a random key and IV for -seal/-open")
	runTest    = flag.Bool("selftest", false, "run known-answer and round-trip checks")

	seal   = flag.Bool("seal", false, "seal -in into a container written to -out")
	open   = flag.Bool("open", false, "open the container -in and write the payload to -out")
	inPath = flag.String("in", "-", "input file, - for stdin")
	out    = flag.String("out", "-", "output file, - for stdout")
	keyHex = flag.String("key", "", "hex key, 16 or 32 bytes")
	ivHex  = flag.String("iv", "", "hex IV, 8 or 12 bytes")
)

func main() {
	flag.Parse()

	if *genConfig {
		generateConfig()
		return
	}
	if *genKey {
		generateKey()
		return
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	switch {
	case *runTest:
		os.Exit(runSelftest(cfg, log))
	case *seal && *open:
		log.Fatal("-seal and -open are mutually exclusive")
	case *seal, *open:
		if err := runContainer(cfg, log, *seal); err != nil {
			log.Fatal("container", zap.Error(err))
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func generateConfig() {
	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Stdout.Write(data)
}

func generateKey() {
	buf := make([]byte, 32+12)
	if _, err := rand.Read(buf); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("-key %s -iv %s\n", hex.EncodeToString(buf[:32]), hex.EncodeToString(buf[32:]))
}

func runSelftest(cfg *config.Config, log *zap.Logger) int {
	opts, err := cfg.Options()
	if err != nil {
		log.Error("configuration", zap.Error(err))
		return 1
	}
	opts.Logger = log
	e, err := ctxcrypt.NewEngine(opts)
	if err != nil {
		log.Error("engine", zap.Error(err))
		return 1
	}

	rep := selftest.Run(call.New(e), log)
	skipped := 0
	for _, c := range rep.Checks {
		status := "ok"
		switch {
		case c.Skipped:
			status = "skip"
			skipped++
		case c.Err != nil:
			status = "FAIL"
		}
		fmt.Printf("%-24s %-4s %v\n", c.Name, status, c.Duration)
	}
	failed := len(rep.Failed())
	fmt.Printf("%d checks, %d failed, %d skipped\n", len(rep.Checks), failed, skipped)
	if failed > 0 {
		return 1
	}
	return 0
}

func runContainer(cfg *config.Config, log *zap.Logger, sealing bool) error {
	key, err := hex.DecodeString(*keyHex)
	if err != nil {
		return fmt.Errorf("-key: %w", err)
	}
	iv, err := hex.DecodeString(*ivHex)
	if err != nil {
		return fmt.Errorf("-iv: %w", err)
	}
	// One key for both directions: the file is opened by whoever holds it.
	s, err := aead.NewSession(key, iv, key, iv)
	if err != nil {
		return err
	}
	defer s.Wipe()

	input, err := readInput(*inPath)
	if err != nil {
		return err
	}

	var result []byte
	if sealing {
		result, err = sealed.Seal(s, input, cfg.SealedOptions())
		if err != nil {
			return err
		}
		log.Info("sealed", zap.Int("payload", len(input)), zap.Int("container", len(result)))
	} else {
		var stats sealed.Stats
		result, stats, err = sealed.Open(s, input)
		if err != nil {
			return err
		}
		log.Info("opened",
			zap.Int("records", stats.Records),
			zap.Int("parity", stats.Parity),
			zap.Int("recovered", stats.Recovered))
	}
	return writeOutput(*out, result)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0600)
}
