package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/willerob90/SubGames-Working/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given a default configuration", t, func() {
		cfg := config.New()

		Convey("Then it is valid out of the box", func() {
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("Then cycles close at 18:00 by default", func() {
			So(cfg.CycleCloseHour, ShouldEqual, 18)
		})

		Convey("Then sessions live ten minutes", func() {
			So(cfg.SessionTTLMinutes, ShouldEqual, 10)
		})

		Convey("Then game and rate-limit overrides start empty", func() {
			So(cfg.GameRules, ShouldBeEmpty)
			So(cfg.RateLimits, ShouldBeEmpty)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given a configuration under validation", t, func() {
		cfg := config.New()

		Convey("When addr is empty", func() {
			cfg.Addr = ""
			So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the close hour is out of range", func() {
			cfg.CycleCloseHour = 24
			So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When a game rule has an inverted window", func() {
			cfg.GameRules = map[string]config.GameRule{
				"whackAMole": {MinSeconds: 10, MaxSeconds: 5, Points: 3},
			}
			So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When a rate limit has a zero window", func() {
			cfg.RateLimits = map[string]config.RateLimit{
				"session_start": {Limit: 30, WindowMinutes: 0},
			}
			So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given layered configuration sources", t, func() {
		Reset(func() {
			os.Unsetenv("SUBGAMES_CONFIG")
			os.Unsetenv("SUBGAMES_ADDR")
			os.Unsetenv("SUBGAMES_DB_PATH")
		})

		Convey("When nothing is set", func() {
			cfg, err := config.Load()
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9080")
		})

		Convey("When environment variables override defaults", func() {
			os.Setenv("SUBGAMES_ADDR", ":7070")
			os.Setenv("SUBGAMES_DB_PATH", "/tmp/override.db")

			cfg, err := config.Load()
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.DBPath, ShouldEqual, "/tmp/override.db")
		})

		Convey("When a YAML file is provided", func() {
			path := filepath.Join(t.TempDir(), "config.yaml")
			yaml := "addr: \":6060\"\nworker_count: 4\ngame_rules:\n  quickTap:\n    min_seconds: 1\n    max_seconds: 30\n    points: 2\n"
			So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
			os.Setenv("SUBGAMES_CONFIG", path)

			cfg, err := config.Load()
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":6060")
			So(cfg.WorkerCount, ShouldEqual, 4)
			So(cfg.GameRules["quickTap"].Points, ShouldEqual, 2)

			Convey("Then env still beats file", func() {
				os.Setenv("SUBGAMES_ADDR", ":5050")
				cfg, err := config.Load()
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":5050")
			})
		})

		Convey("When the configured file does not exist", func() {
			os.Setenv("SUBGAMES_CONFIG", "/nonexistent/config.yaml")
			_, err := config.Load()
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})
	})
}
