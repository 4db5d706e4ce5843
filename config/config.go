package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	OriginAllowlist []string

	GridWidth        int
	GridLength       int
	CountdownFrom    int
	CountdownStep    time.Duration
	SnapshotHz       int
	HiddenCellPublic bool
	Strict           bool

	// Codec is the default wire codec for clients that do not ask for one.
	Codec string

	Announce      bool
	AnnounceAddr  string
	AnnounceEvery time.Duration
	ServerName    string
}

func Default() Config {
	name, _ := os.Hostname()
	return Config{
		Addr:            ":8080",
		OriginAllowlist: []string{"http://localhost:8080", "http://127.0.0.1:8080"},
		GridWidth:       6,
		GridLength:      6,
		CountdownFrom:   3,
		CountdownStep:   time.Second,
		SnapshotHz:      10,
		Codec:           "json",
		AnnounceAddr:    "239.192.0.4:9193",
		AnnounceEvery:   2 * time.Second,
		ServerName:      name,
	}
}

// InitConfig loads .env files into the environment. A missing file is not
// an error; a malformed one is.
func InitConfig(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Println("no .env file, using process environment")
			return nil
		}
		return fmt.Errorf("config: load env: %w", err)
	}

	log.Println("Successfully loaded environment variables")
	return nil
}

// Load runs InitConfig then reads the environment over the defaults.
func Load(files ...string) (Config, error) {
	if err := InitConfig(files...); err != nil {
		return Config{}, err
	}
	return FromEnv()
}

// FromEnv reads every recognised variable over the defaults.
func FromEnv() (Config, error) {
	c := Default()
	var errs []error
	str := func(key string, dst *string) {
		if v, err := GetEnvVariable(key); err == nil {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, err := GetEnvVariable(key); err == nil {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				errs = append(errs, fmt.Errorf("%s=%q: want a positive integer", key, v))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, err := GetEnvVariable(key); err == nil {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s=%q: %w", key, v, err))
				return
			}
			*dst = b
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, err := GetEnvVariable(key); err == nil {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				errs = append(errs, fmt.Errorf("%s=%q: want a positive duration", key, v))
				return
			}
			*dst = d
		}
	}

	str("ADDR", &c.Addr)
	if v, err := GetEnvVariable("ORIGIN_ALLOWLIST"); err == nil {
		c.OriginAllowlist = splitList(v)
	}
	num("GRID_WIDTH", &c.GridWidth)
	num("GRID_LENGTH", &c.GridLength)
	num("COUNTDOWN_FROM", &c.CountdownFrom)
	dur("COUNTDOWN_STEP", &c.CountdownStep)
	num("SNAPSHOT_HZ", &c.SnapshotHz)
	flag("HIDDEN_CELL_PUBLIC", &c.HiddenCellPublic)
	flag("STRICT", &c.Strict)
	str("CODEC", &c.Codec)
	flag("ANNOUNCE", &c.Announce)
	str("ANNOUNCE_ADDR", &c.AnnounceAddr)
	dur("ANNOUNCE_EVERY", &c.AnnounceEvery)
	str("SERVER_NAME", &c.ServerName)

	if c.GridWidth < 2 || c.GridLength < 2 {
		errs = append(errs, fmt.Errorf("grid %dx%d: both sides must be at least 2", c.GridWidth, c.GridLength))
	}
	if c.Codec != "json" && c.Codec != "msgpack" {
		errs = append(errs, fmt.Errorf("CODEC=%q: want json or msgpack", c.Codec))
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

func GetEnvVariable(v string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("input param empty")
	}
	b := os.Getenv(v)
	if b == "" {
		return "", fmt.Errorf("failed to get variable for %s", v)
	}

	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
