package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pable/go-gplus/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.BaseURL, convey.ShouldEqual, "https://app.americansocceranalysis.com/api/v1")
			convey.So(cfg.RequestDelayMS, convey.ShouldEqual, 500)
			convey.So(cfg.TopN, convey.ShouldEqual, 10)
			convey.So(cfg.QualifyFraction, convey.ShouldEqual, 0.25)
			convey.So(cfg.ZoneMirror, convey.ShouldEqual, "team")
			convey.So(len(cfg.Competitions), convey.ShouldEqual, 6)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Format, convey.ShouldEqual, "csv")
				convey.So(cfg.OutDir, convey.ShouldEqual, "data")
			})
		})

		convey.Convey("When loading with environment variables", func() {
			t.Setenv("GPLUS_OUT_DIR", "/tmp/snapshots")
			t.Setenv("GPLUS_TOP_N", "25")
			t.Setenv("GPLUS_ZONE_MIRROR", "league")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then env overrides the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OutDir, convey.ShouldEqual, "/tmp/snapshots")
				convey.So(cfg.TopN, convey.ShouldEqual, 25)
				convey.So(cfg.ZoneMirror, convey.ShouldEqual, "league")
			})
		})

		convey.Convey("When loading a YAML file with an env override", func() {
			path := writeConfig(t, `
format: json
request_delay_ms: 1000
zone_game_states: true
excluded_action_types: [Fouling, Claiming]
competitions:
  - name: mls
    start_year: 2020
`)
			t.Setenv("GPLUS_REQUEST_DELAY_MS", "250")

			cfg, err := config.Load(ctx, path)

			convey.Convey("Then file values apply and env wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Format, convey.ShouldEqual, "json")
				convey.So(cfg.ZoneGameStates, convey.ShouldBeTrue)
				convey.So(cfg.RequestDelayMS, convey.ShouldEqual, 250)
				convey.So(cfg.ExcludedActionTypes, convey.ShouldResemble, []string{"Fouling", "Claiming"})
				convey.So(cfg.Competitions, convey.ShouldResemble, []config.Competition{{Name: "mls", StartYear: 2020}})
			})
		})

		convey.Convey("When the file does not exist", func() {
			_, err := config.Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a value is invalid", func() {
			t.Setenv("GPLUS_FORMAT", "xlsx")
			_, err := config.Load(ctx, "")

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gplus.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, k := range []string{
		"GPLUS_CONFIG", "GPLUS_OUT_DIR", "GPLUS_TOP_N", "GPLUS_ZONE_MIRROR",
		"GPLUS_REQUEST_DELAY_MS", "GPLUS_FORMAT",
	} {
		_ = os.Unsetenv(k)
	}
}
