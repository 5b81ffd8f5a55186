package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/hazemadel/vitrine/pkg/projects"
	"gopkg.in/yaml.v2"
)

type configuration struct {
	Debug bool `conf:"default:false"`
	Web   struct {
		APIHost         string        `conf:"default:0.0.0.0:3000"`
		ReadTimeout     time.Duration `conf:"default:5s"`
		WriteTimeout    time.Duration `conf:"default:10s"`
		ShutdownTimeout time.Duration `conf:"default:10s"`
	}
	DB struct {
		Filename string `conf:"default:vitrine.db"`
	}
	Assets struct {
		Path      string `conf:"default:assets"`
		PublicURL string `conf:"default:http://localhost:3000/static"`
	}
	Auth struct {
		InstitutionDomain string `conf:"default:horus.edu.eg"`
		AdminEmail        string `conf:"default:admin@horus.edu.eg"`
	}
	Departments struct {
		Path string `conf:"default:departments.yaml"`
	}
}

// loadConfiguration assembles the configuration from defaults, environment variables and
// command line flags, in ascending order of precedence.
func loadConfiguration() (cfg configuration, err error) {
	if err = conf.Parse(os.Args[1:], "VITRINE", &cfg); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			usage, usageErr := conf.Usage("VITRINE", &cfg)
			if usageErr != nil {
				return cfg, fmt.Errorf("generating config usage: %w", usageErr)
			}
			fmt.Println(usage)
			return cfg, conf.ErrHelpWanted
		}
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// loadDepartments reads the departments catalogue from an optional YAML file, falling back
// to the default list when no file exists at the configured path.
func loadDepartments(path string) ([]string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return projects.DefaultDepartments, nil
		}
		return nil, fmt.Errorf("reading departments catalogue: %w", err)
	}

	var catalogue struct {
		Departments []string `yaml:"departments"`
	}
	if err = yaml.Unmarshal(contents, &catalogue); err != nil {
		return nil, fmt.Errorf("parsing departments catalogue: %w", err)
	}
	if len(catalogue.Departments) == 0 {
		return nil, errors.New("the departments catalogue is empty")
	}
	return catalogue.Departments, nil
}
